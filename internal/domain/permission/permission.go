// Package permission resuelve qué capacidades tiene cada rol.
//
// La tabla rol → capacidades es fija y se construye una sola vez al cargar el paquete;
// no se persiste por usuario ni se modifica en tiempo de ejecución. Un rol desconocido
// no tiene ninguna capacidad.
package permission

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Capability etiqueta de permiso, p. ej. "stock.record_in".
type Capability string

// Capacidades.
const (
	UsersCreate      Capability = "users.create"
	UsersRead        Capability = "users.read"
	UsersUpdate      Capability = "users.update"
	UsersDelete      Capability = "users.delete"
	UsersAssignRoles Capability = "users.assign_roles"

	ProductsCreate      Capability = "products.create"
	ProductsRead        Capability = "products.read"
	ProductsUpdate      Capability = "products.update"
	ProductsDelete      Capability = "products.delete"
	ProductsAdjustStock Capability = "products.adjust_stock"

	CategoriesCreate Capability = "categories.create"
	CategoriesRead   Capability = "categories.read"
	CategoriesUpdate Capability = "categories.update"
	CategoriesDelete Capability = "categories.delete"

	SuppliersCreate Capability = "suppliers.create"
	SuppliersRead   Capability = "suppliers.read"
	SuppliersUpdate Capability = "suppliers.update"
	SuppliersDelete Capability = "suppliers.delete"

	PurchaseOrdersCreate  Capability = "purchase_orders.create"
	PurchaseOrdersRead    Capability = "purchase_orders.read"
	PurchaseOrdersUpdate  Capability = "purchase_orders.update"
	PurchaseOrdersDelete  Capability = "purchase_orders.delete"
	PurchaseOrdersApprove Capability = "purchase_orders.approve"
	PurchaseOrdersReceive Capability = "purchase_orders.receive"

	SalesCreate Capability = "sales.create"
	SalesRead   Capability = "sales.read"
	SalesUpdate Capability = "sales.update"
	SalesDelete Capability = "sales.delete"
	SalesRefund Capability = "sales.refund"

	StockRecordIn      Capability = "stock.record_in"
	StockRecordOut     Capability = "stock.record_out"
	StockAdjust        Capability = "stock.adjust"
	StockTransfer      Capability = "stock.transfer"
	StockViewMovements Capability = "stock.view_movements"

	ReportsSales     Capability = "reports.sales"
	ReportsStock     Capability = "reports.stock"
	ReportsAudit     Capability = "reports.audit"
	ReportsFinancial Capability = "reports.financial"
	ReportsExport    Capability = "reports.export"

	SettingsRead    Capability = "settings.read"
	SettingsUpdate  Capability = "settings.update"
	SettingsTax     Capability = "settings.tax"
	SettingsCompany Capability = "settings.company"
	SettingsBackup  Capability = "settings.backup"

	AuditRead   Capability = "audit.read"
	AuditExport Capability = "audit.export"

	DashboardAdmin   Capability = "dashboard.admin"
	DashboardManager Capability = "dashboard.manager"
	DashboardStaff   Capability = "dashboard.staff"
)

type capabilitySet map[Capability]struct{}

var rolePermissions = map[string]capabilitySet{
	entity.RoleAdmin: newSet(
		UsersCreate, UsersRead, UsersUpdate, UsersDelete, UsersAssignRoles,
		ProductsCreate, ProductsRead, ProductsUpdate, ProductsDelete, ProductsAdjustStock,
		CategoriesCreate, CategoriesRead, CategoriesUpdate, CategoriesDelete,
		SuppliersCreate, SuppliersRead, SuppliersUpdate, SuppliersDelete,
		PurchaseOrdersCreate, PurchaseOrdersRead, PurchaseOrdersUpdate, PurchaseOrdersDelete, PurchaseOrdersApprove, PurchaseOrdersReceive,
		SalesCreate, SalesRead, SalesUpdate, SalesDelete, SalesRefund,
		StockRecordIn, StockRecordOut, StockAdjust, StockTransfer, StockViewMovements,
		ReportsSales, ReportsStock, ReportsAudit, ReportsFinancial, ReportsExport,
		SettingsRead, SettingsUpdate, SettingsTax, SettingsCompany, SettingsBackup,
		AuditRead, AuditExport,
		DashboardAdmin,
	),
	entity.RoleManager: newSet(
		UsersRead,
		ProductsCreate, ProductsRead, ProductsUpdate, ProductsAdjustStock,
		CategoriesRead, CategoriesCreate, CategoriesUpdate,
		SuppliersRead, SuppliersCreate, SuppliersUpdate,
		PurchaseOrdersCreate, PurchaseOrdersRead, PurchaseOrdersUpdate, PurchaseOrdersApprove, PurchaseOrdersReceive,
		SalesCreate, SalesRead, SalesUpdate, SalesRefund,
		StockRecordIn, StockRecordOut, StockAdjust, StockTransfer, StockViewMovements,
		ReportsSales, ReportsStock, ReportsExport,
		SettingsRead,
		DashboardManager,
	),
	entity.RoleStaff: newSet(
		UsersRead,
		ProductsRead,
		CategoriesRead,
		SuppliersRead,
		PurchaseOrdersRead,
		SalesCreate, SalesRead,
		StockRecordIn, StockRecordOut, StockViewMovements,
		ReportsStock,
		DashboardStaff,
	),
}

var descriptions = map[Capability]string{
	UsersCreate:      "Crear usuarios",
	UsersRead:        "Ver información de usuarios",
	UsersUpdate:      "Actualizar usuarios",
	UsersDelete:      "Eliminar usuarios",
	UsersAssignRoles: "Asignar roles a usuarios",

	ProductsCreate:      "Crear productos",
	ProductsRead:        "Ver productos",
	ProductsUpdate:      "Actualizar productos",
	ProductsDelete:      "Eliminar productos",
	ProductsAdjustStock: "Ajustar niveles de stock",

	CategoriesCreate: "Crear categorías",
	CategoriesRead:   "Ver categorías",
	CategoriesUpdate: "Actualizar categorías",
	CategoriesDelete: "Eliminar categorías",

	SuppliersCreate: "Crear proveedores",
	SuppliersRead:   "Ver proveedores",
	SuppliersUpdate: "Actualizar proveedores",
	SuppliersDelete: "Eliminar proveedores",

	PurchaseOrdersCreate:  "Crear órdenes de compra",
	PurchaseOrdersRead:    "Ver órdenes de compra",
	PurchaseOrdersUpdate:  "Actualizar órdenes de compra",
	PurchaseOrdersDelete:  "Eliminar órdenes de compra",
	PurchaseOrdersApprove: "Aprobar órdenes de compra",
	PurchaseOrdersReceive: "Recibir órdenes de compra",

	SalesCreate: "Registrar ventas",
	SalesRead:   "Ver ventas",
	SalesUpdate: "Actualizar ventas",
	SalesDelete: "Eliminar ventas",
	SalesRefund: "Procesar devoluciones",

	StockRecordIn:      "Registrar entradas de stock",
	StockRecordOut:     "Registrar salidas de stock",
	StockAdjust:        "Ajustar stock y aprobar movimientos",
	StockTransfer:      "Trasladar stock entre ubicaciones",
	StockViewMovements: "Ver historial de movimientos",

	ReportsSales:     "Ver reportes de ventas",
	ReportsStock:     "Ver reportes de stock",
	ReportsAudit:     "Ver reportes de auditoría",
	ReportsFinancial: "Ver reportes financieros",
	ReportsExport:    "Exportar reportes",

	SettingsRead:    "Ver configuración",
	SettingsUpdate:  "Actualizar configuración",
	SettingsTax:     "Gestionar impuestos",
	SettingsCompany: "Gestionar datos de la empresa",
	SettingsBackup:  "Gestionar respaldos",

	AuditRead:   "Ver auditoría",
	AuditExport: "Exportar auditoría",

	DashboardAdmin:   "Acceder al tablero de administración",
	DashboardManager: "Acceder al tablero de manager",
	DashboardStaff:   "Acceder al tablero de staff",
}

var movementCapabilities = map[entity.MovementType]Capability{
	entity.MovementTypeIn:         StockRecordIn,
	entity.MovementTypeOut:        StockRecordOut,
	entity.MovementTypeAdjustment: StockAdjust,
	entity.MovementTypeTransfer:   StockTransfer,
}

func newSet(caps ...Capability) capabilitySet {
	s := make(capabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// HasPermission indica si role tiene la capacidad. Rol desconocido ⇒ false.
func HasPermission(role string, capability Capability) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

// HasAnyPermission es true si role tiene al menos una de las capacidades.
func HasAnyPermission(role string, capabilities ...Capability) bool {
	for _, c := range capabilities {
		if HasPermission(role, c) {
			return true
		}
	}
	return false
}

// HasAllPermissions es true si role tiene todas las capacidades. Un rol desconocido
// nunca pasa, ni siquiera con la lista vacía.
func HasAllPermissions(role string, capabilities ...Capability) bool {
	if !ValidRole(role) {
		return false
	}
	for _, c := range capabilities {
		if !HasPermission(role, c) {
			return false
		}
	}
	return true
}

// RolePermissions devuelve una copia ordenada de las capacidades del rol.
func RolePermissions(role string) []Capability {
	set := rolePermissions[role]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidRole indica si el rol existe en la tabla.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Describe texto legible de la capacidad (vacío si no existe).
func Describe(capability Capability) string {
	return descriptions[capability]
}

// CapabilityForMovement capacidad necesaria para registrar un movimiento del tipo dado.
func CapabilityForMovement(t entity.MovementType) (Capability, bool) {
	c, ok := movementCapabilities[t]
	return c, ok
}

package entity

// Roles válidos.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Actor identidad de quien opera el ledger; la construye la capa HTTP a partir del token.
type Actor struct {
	ID   string
	Role string
}

package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento.
const (
	MovementTypeIn         MovementType = "in"         // entrada
	MovementTypeOut        MovementType = "out"        // salida
	MovementTypeAdjustment MovementType = "adjustment" // ajuste con signo explícito
	MovementTypeTransfer   MovementType = "transfer"   // entre ubicaciones, neto cero en el total
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment, MovementTypeTransfer:
		return true
	}
	return false
}

// MovementStatus estado del ciclo de vida de un movimiento.
type MovementStatus string

// Estados. approved y rejected son terminales.
const (
	MovementStatusPending  MovementStatus = "pending"
	MovementStatusApproved MovementStatus = "approved"
	MovementStatusRejected MovementStatus = "rejected"
)

// Valid indica si el estado es uno de los conocidos.
func (s MovementStatus) Valid() bool {
	switch s {
	case MovementStatusPending, MovementStatusApproved, MovementStatusRejected:
		return true
	}
	return false
}

// Terminal indica si el estado ya no admite transiciones.
func (s MovementStatus) Terminal() bool {
	return s == MovementStatusApproved || s == MovementStatusRejected
}

// CanTransitionTo implementa la máquina de estados: solo pending → approved | rejected.
func (s MovementStatus) CanTransitionTo(next MovementStatus) bool {
	return s == MovementStatusPending && next.Terminal()
}

// StockMovement solicitud auditable de cambio de stock de un producto.
// RequestedDelta es la magnitud positiva para in/out/transfer y el valor con signo para adjustment.
// PreviousQuantity/NewQuantity quedan en nil hasta la aprobación; el registro es inmutable
// una vez que sale de pending.
type StockMovement struct {
	ID               string
	ProductID        string
	Type             MovementType
	RequestedDelta   int64
	Reason           string
	ReferenceNumber  string
	LocationFrom     string
	LocationTo       string
	Status           MovementStatus
	PreviousQuantity *int64
	NewQuantity      *int64
	CreatedBy        string
	ApprovedBy       *string // actor que decidió (aprobó o rechazó)
	DecisionReason   string
	CreatedAt        time.Time
	DecidedAt        *time.Time
}

// Approve pasa el movimiento a approved registrando las cantidades aplicadas.
func (m *StockMovement) Approve(approver string, previous, next int64, note string, at time.Time) error {
	if !m.Status.CanTransitionTo(MovementStatusApproved) {
		return fmt.Errorf("%w: movimiento %s está %s", domain.ErrInvalidState, m.ID, m.Status)
	}
	m.Status = MovementStatusApproved
	m.PreviousQuantity = &previous
	m.NewQuantity = &next
	m.ApprovedBy = &approver
	m.DecisionReason = note
	m.DecidedAt = &at
	return nil
}

// Reject pasa el movimiento a rejected; no toca cantidades.
func (m *StockMovement) Reject(approver, reason string, at time.Time) error {
	if !m.Status.CanTransitionTo(MovementStatusRejected) {
		return fmt.Errorf("%w: movimiento %s está %s", domain.ErrInvalidState, m.ID, m.Status)
	}
	m.Status = MovementStatusRejected
	m.ApprovedBy = &approver
	m.DecisionReason = reason
	m.DecidedAt = &at
	return nil
}

// Clone copia profunda (los punteros no se comparten).
func (m *StockMovement) Clone() *StockMovement {
	if m == nil {
		return nil
	}
	c := *m
	if m.PreviousQuantity != nil {
		v := *m.PreviousQuantity
		c.PreviousQuantity = &v
	}
	if m.NewQuantity != nil {
		v := *m.NewQuantity
		c.NewQuantity = &v
	}
	if m.ApprovedBy != nil {
		v := *m.ApprovedBy
		c.ApprovedBy = &v
	}
	if m.DecidedAt != nil {
		v := *m.DecidedAt
		c.DecidedAt = &v
	}
	return &c
}

package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SubmitMovementRequest body para POST /api/inventory/movements.
// magnitude: positiva para in/out/transfer; con signo para adjustment.
type SubmitMovementRequest struct {
	Type            string `json:"type"`
	ProductID       string `json:"product_id"`
	Magnitude       int64  `json:"magnitude"`
	Reason          string `json:"reason"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	LocationFrom    string `json:"location_from,omitempty"`
	LocationTo      string `json:"location_to,omitempty"`
}

// ApproveMovementRequest body opcional para aprobar.
type ApproveMovementRequest struct {
	Note string `json:"note"`
}

// RejectMovementRequest body para rechazar; reason es obligatorio.
type RejectMovementRequest struct {
	Reason string `json:"reason"`
}

// MovementResponse salida de un movimiento. status siempre presente: un pending nunca se
// presenta como aplicado.
type MovementResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	Type             string     `json:"type"`
	RequestedDelta   int64      `json:"requested_delta"`
	Reason           string     `json:"reason"`
	ReferenceNumber  string     `json:"reference_number,omitempty"`
	LocationFrom     string     `json:"location_from,omitempty"`
	LocationTo       string     `json:"location_to,omitempty"`
	Status           string     `json:"status"`
	PreviousQuantity *int64     `json:"previous_quantity"`
	NewQuantity      *int64     `json:"new_quantity"`
	CreatedBy        string     `json:"created_by"`
	ApprovedBy       *string    `json:"approved_by"`
	DecisionReason   string     `json:"decision_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedAt        *time.Time `json:"decided_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconciliationResponse resultado de conciliar un producto.
type ReconciliationResponse struct {
	ProductID         string `json:"product_id"`
	InitialQuantity   int64  `json:"initial_quantity"`
	ExpectedQuantity  int64  `json:"expected_quantity"`
	ActualQuantity    int64  `json:"actual_quantity"`
	ApprovedMovements int    `json:"approved_movements"`
	Consistent        bool   `json:"consistent"`
	BrokenMovementID  string `json:"broken_movement_id,omitempty"`
	Detail            string `json:"detail,omitempty"`
}

// PermissionsResponse capacidades del usuario autenticado.
type PermissionsResponse struct {
	UserID       string           `json:"user_id"`
	Role         string           `json:"role"`
	Capabilities []CapabilityInfo `json:"capabilities"`
}

// CapabilityInfo capacidad con su descripción.
type CapabilityInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MovementEventMessage mensaje difundido por WebSocket y Redis.
type MovementEventMessage struct {
	Event      string           `json:"event"`
	Movement   MovementResponse `json:"movement"`
	Product    *ProductResponse `json:"product,omitempty"`
	ActorID    string           `json:"actor_id"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// ToMovementResponse mapea entidad a DTO.
func ToMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		ProductID:        m.ProductID,
		Type:             string(m.Type),
		RequestedDelta:   m.RequestedDelta,
		Reason:           m.Reason,
		ReferenceNumber:  m.ReferenceNumber,
		LocationFrom:     m.LocationFrom,
		LocationTo:       m.LocationTo,
		Status:           string(m.Status),
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		CreatedBy:        m.CreatedBy,
		ApprovedBy:       m.ApprovedBy,
		DecisionReason:   m.DecisionReason,
		CreatedAt:        m.CreatedAt,
		DecidedAt:        m.DecidedAt,
	}
}

// ToMovementResponses mapea una lista.
func ToMovementResponses(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToMovementEventMessage mapea un evento del ledger al mensaje difundido.
func ToMovementEventMessage(ev inventory.MovementEvent) MovementEventMessage {
	msg := MovementEventMessage{
		Event:      ev.Type,
		ActorID:    ev.ActorID,
		OccurredAt: ev.OccurredAt,
	}
	if ev.Movement != nil {
		msg.Movement = ToMovementResponse(ev.Movement)
	}
	if ev.Product != nil {
		p := ToProductResponse(ev.Product)
		msg.Product = &p
	}
	return msg
}

// ToReconciliationResponse mapea el resultado de Reconcile.
func ToReconciliationResponse(r *inventory.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ProductID:         r.ProductID,
		InitialQuantity:   r.InitialQuantity,
		ExpectedQuantity:  r.ExpectedQuantity,
		ActualQuantity:    r.ActualQuantity,
		ApprovedMovements: r.ApprovedMovements,
		Consistent:        r.Consistent,
		BrokenMovementID:  r.BrokenMovementID,
		Detail:            r.Detail,
	}
}

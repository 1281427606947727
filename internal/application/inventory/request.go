package inventory

import (
	"fmt"
	"strings"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/validator"
)

// MovementRequest variante etiquetada por Type que llega al ledger.
// Magnitude: positiva para in/out/transfer; con signo y distinta de cero para adjustment.
// LocationFrom/LocationTo solo aplican (y son obligatorias) en transfer.
type MovementRequest struct {
	Type            entity.MovementType `validate:"required,oneof=in out adjustment transfer"`
	ProductID       string              `validate:"required,uuid_string"`
	Magnitude       int64
	Reason          string `validate:"required,max=500"`
	ReferenceNumber string `validate:"max=100"`
	LocationFrom    string `validate:"max=100"`
	LocationTo      string `validate:"max=100"`
}

func init() {
	validator.Instance().RegisterStructValidation(validateMovementRequest, MovementRequest{})
}

// validateMovementRequest reglas que dependen del tipo de movimiento.
func validateMovementRequest(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(MovementRequest)
	switch req.Type {
	case entity.MovementTypeIn, entity.MovementTypeOut:
		if req.Magnitude <= 0 {
			sl.ReportError(req.Magnitude, "Magnitude", "Magnitude", "gt", "0")
		}
		if req.LocationFrom != "" {
			sl.ReportError(req.LocationFrom, "LocationFrom", "LocationFrom", "excluded", "")
		}
		if req.LocationTo != "" {
			sl.ReportError(req.LocationTo, "LocationTo", "LocationTo", "excluded", "")
		}
	case entity.MovementTypeAdjustment:
		if req.Magnitude == 0 {
			sl.ReportError(req.Magnitude, "Magnitude", "Magnitude", "ne", "0")
		}
		if req.LocationFrom != "" || req.LocationTo != "" {
			sl.ReportError(req.LocationFrom, "LocationFrom", "LocationFrom", "excluded", "")
		}
	case entity.MovementTypeTransfer:
		if req.Magnitude <= 0 {
			sl.ReportError(req.Magnitude, "Magnitude", "Magnitude", "gt", "0")
		}
		if strings.TrimSpace(req.LocationFrom) == "" {
			sl.ReportError(req.LocationFrom, "LocationFrom", "LocationFrom", "required", "")
		}
		if strings.TrimSpace(req.LocationTo) == "" {
			sl.ReportError(req.LocationTo, "LocationTo", "LocationTo", "required", "")
		}
		if req.LocationFrom != "" && strings.EqualFold(strings.TrimSpace(req.LocationFrom), strings.TrimSpace(req.LocationTo)) {
			sl.ReportError(req.LocationTo, "LocationTo", "LocationTo", "nefield", "LocationFrom")
		}
	}
}

// Normalize recorta espacios de los campos de texto.
func (r MovementRequest) Normalize() MovementRequest {
	r.Type = entity.MovementType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.Reason = strings.TrimSpace(r.Reason)
	r.ReferenceNumber = strings.TrimSpace(r.ReferenceNumber)
	r.LocationFrom = strings.TrimSpace(r.LocationFrom)
	r.LocationTo = strings.TrimSpace(r.LocationTo)
	return r
}

// Validate aplica todas las reglas y devuelve domain.ErrValidation con los campos inválidos.
func (r MovementRequest) Validate() error {
	errs, err := validator.Struct(r)
	if err != nil {
		return fmt.Errorf("validar movimiento: %w", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, validator.Join(errs))
	}
	return nil
}

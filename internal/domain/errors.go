package domain

import "errors"

// Errores de dominio (sin dependencias externas). Se envuelven con fmt.Errorf("%w: ...")
// para llevar el motivo legible; los llamadores clasifican con errors.Is.
var (
	ErrValidation          = errors.New("entrada inválida")
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrPermissionDenied    = errors.New("permiso denegado")
	ErrInvalidState        = errors.New("estado inválido para la operación")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
)

// IsRetryable indica si el llamador puede repetir la operación sin corregir la entrada.
// Solo los conflictos de bloqueo lo son: fallan antes del commit y no dejan efectos.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// Package validator envuelve go-playground/validator con una instancia compartida
// y un formato de error legible para las respuestas HTTP.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FieldError describe una regla incumplida.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (%s=%s)", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s (%s)", e.Field, e.Tag)
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("uuid_string", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Instance expone el validador para registrar reglas de struct (RegisterStructValidation).
func Instance() *validator.Validate {
	return validate
}

// Struct valida data y devuelve la lista de campos inválidos (vacía si es válido).
// Errores que no son de validación (p. ej. data no es struct) se devuelven como error.
func Struct(data any) ([]FieldError, error) {
	err := validate.Struct(data)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out, nil
}

// Join formatea los errores de campo en una sola línea.
func Join(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

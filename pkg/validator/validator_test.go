package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/validator"
)

type sample struct {
	ID    string `validate:"required,uuid_string"`
	Name  string `validate:"required,max=5"`
	Count int    `validate:"min=0"`
}

func TestStruct_Valido(t *testing.T) {
	errs, err := validator.Struct(sample{ID: "6f1c1d8e-2b1a-4c55-9d7e-1a2b3c4d5e6f", Name: "ok"})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestStruct_CamposInvalidos(t *testing.T) {
	errs, err := validator.Struct(sample{ID: "no-es-uuid", Name: "demasiado largo", Count: -1})
	require.NoError(t, err)
	require.Len(t, errs, 3)
	assert.Equal(t, "ID (uuid_string), Name (max=5), Count (min=0)", validator.Join(errs))
}

func TestStruct_NoEsStruct(t *testing.T) {
	_, err := validator.Struct(42)
	assert.Error(t, err)
}

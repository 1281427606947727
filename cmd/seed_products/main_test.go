package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCatalog_Latin1PuntoYComa(t *testing.T) {
	src := "sku;name;category;unit_price;initial_quantity;min_stock_level\n" +
		"TOR-001;Tornillo cabeza cónica;Ferretería;350,50;40;10\n" +
		";sin sku;;;;\n" +
		"ARA-002;Arandela;Ferretería;;0;2\n"
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)

	rows, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "TOR-001", rows[0].SKU)
	assert.Equal(t, "Tornillo cabeza cónica", rows[0].Name)
	assert.Equal(t, "Ferretería", rows[0].Category)
	assert.True(t, decimal.RequireFromString("350.50").Equal(rows[0].UnitPrice))
	assert.Equal(t, int64(40), rows[0].InitialQuantity)
	assert.Equal(t, int64(10), rows[0].MinStockLevel)

	assert.Equal(t, int64(0), rows[1].InitialQuantity)
	assert.True(t, rows[1].UnitPrice.IsZero())
}

func TestParseCatalog_UTF8Comas(t *testing.T) {
	raw := []byte("\ufeffsku,name,initial_quantity\nA,Ángulo,5\n")
	rows, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ángulo", rows[0].Name)
	assert.Equal(t, int64(5), rows[0].InitialQuantity)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog([]byte("codigo,nombre\nA,B\n"))
	assert.Error(t, err, "faltan columnas obligatorias")

	_, err = parseCatalog([]byte("sku,name,initial_quantity\nA,B,muchos\n"))
	assert.Error(t, err)
}

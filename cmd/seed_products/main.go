// seed_products carga un catálogo de productos desde CSV a PostgreSQL.
//
// Uso: go run ./cmd/seed_products [ruta/catalogo.csv]
// Por defecto busca productos.csv en el directorio actual.
// Columnas (con encabezado): sku;name;category;unit_price;initial_quantity;min_stock_level;max_stock_level;unit_of_measure
// Acepta separador ';' o ','. Los archivos exportados desde Excel suelen venir en ISO-8859-1;
// si el contenido no es UTF-8 válido se decodifica como Latin-1.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var columns = []string{"sku", "name", "category", "unit_price", "initial_quantity", "min_stock_level", "max_stock_level", "unit_of_measure"}

func main() {
	csvPath := "productos.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	rows, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	uc := usecase.NewProductUseCase(postgres.NewProductRepository(pool))
	var created, skipped int
	for i, in := range rows {
		if _, err := uc.Create(ctx, in); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				continue
			}
			log.Error().Err(err).Int("line", i+2).Str("sku", in.SKU).Msg("producto no cargado")
			continue
		}
		created++
	}
	log.Info().Int("created", created).Int("skipped", skipped).Int("total", len(rows)).Msg("catálogo cargado")
}

// parseCatalog decodifica el CSV y lo mapea a solicitudes de creación.
func parseCatalog(raw []byte) ([]dto.CreateProductRequest, error) {
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	reader := csv.NewReader(r)
	reader.Comma = detectSeparator(raw)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range columns[:2] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	var out []dto.CreateProductRequest
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		in := dto.CreateProductRequest{
			SKU:           field("sku"),
			Name:          field("name"),
			Category:      field("category"),
			UnitOfMeasure: field("unit_of_measure"),
		}
		if in.SKU == "" {
			continue
		}
		if v := field("unit_price"); v != "" {
			price, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
			if err != nil {
				return nil, fmt.Errorf("línea %d: unit_price %q", line, v)
			}
			in.UnitPrice = price
		}
		for name, dst := range map[string]*int64{
			"initial_quantity": &in.InitialQuantity,
			"min_stock_level":  &in.MinStockLevel,
			"max_stock_level":  &in.MaxStockLevel,
		} {
			v := field(name)
			if v == "" {
				continue
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("línea %d: %s %q", line, name, v)
			}
			*dst = n
		}
		out = append(out, in)
	}
	return out, nil
}

// detectSeparator elige ';' si la primera línea lo contiene (export regional de Excel).
func detectSeparator(raw []byte) rune {
	first := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		first = raw[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

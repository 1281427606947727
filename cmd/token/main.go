// token emite un JWT de desarrollo para probar la API sin un proveedor de identidad.
//
// Uso: go run ./cmd/token <user_id> <role> [minutos]
// Toma JWT_SECRET y JWT_ISSUER de la misma configuración que la API.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/stock-ledger/internal/domain/permission"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: token <user_id> <role> [minutos]")
		os.Exit(2)
	}
	userID, role := os.Args[1], os.Args[2]
	if !permission.ValidRole(role) {
		fmt.Fprintf(os.Stderr, "rol desconocido %q (admin | manager | staff)\n", role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	minutes := cfg.JWT.Expiration
	if len(os.Args) > 3 {
		if minutes, err = strconv.Atoi(os.Args[3]); err != nil || minutes <= 0 {
			fmt.Fprintf(os.Stderr, "minutos inválidos %q\n", os.Args[3])
			os.Exit(2)
		}
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, userID, role, cfg.JWT.Issuer, minutes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

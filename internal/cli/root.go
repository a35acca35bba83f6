// Package cli implementa hubctl: registro, sesión y alta de empresa desde la terminal.
// La sesión vive en un único store durable (un solo cliente por perfil de usuario).
package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
)

// Deps casos de uso y store de sesión que usan los comandos.
type Deps struct {
	Auth      *auth.UseCase
	Bootstrap *bootstrap.UseCase
	Store     *session.Store
}

// NewRootCommand arma el árbol de comandos de hubctl.
func NewRootCommand(d Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "hubctl",
		Short: "Cliente de línea de comandos de Wasper Business Hub",
		Long: `hubctl registra cuentas, inicia sesión y crea la empresa del usuario.

La sesión se guarda en el directorio de configuración del usuario y sobrevive
entre ejecuciones hasta "hubctl logout".

Ejemplos:
  hubctl register --name "Ada Obi" --email ada@example.com --password secret1
  hubctl login --email ada@example.com --password secret1
  hubctl setup-company --name Acme --logo ./logo.png
  hubctl whoami`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRegisterCmd(d),
		newLoginCmd(d),
		newLogoutCmd(d),
		newWhoamiCmd(d),
		newSetupCompanyCmd(d),
	)
	return root
}

// PrintError escribe el error y, si es de validación, los mensajes por campo.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	fields := validation.FieldErrors(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
	}
}

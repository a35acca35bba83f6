package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
)

func newRegisterCmd(d Deps) *cobra.Command {
	var in dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registrar una cuenta nueva",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := d.Auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "nombre completo")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "contraseña (mínimo 6 caracteres)")
	return cmd
}

func newLoginCmd(d Deps) *cobra.Command {
	var in dto.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := d.Auth.Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sesión iniciada como %s\n", in.Email)
			if out.Redirect == dto.RouteCompanySetup {
				fmt.Fprintln(w, `aún no tiene empresa: ejecute "hubctl setup-company"`)
			} else {
				fmt.Fprintf(w, "empresa %s, rol %s\n", out.Session.CompanyID, out.Session.Role)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "contraseña")
	return cmd
}

func newLogoutCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := d.Auth.Logout(cmd.Context(), d.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sesión cerrada")
			return nil
		},
	}
}

func newWhoamiCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar la sesión actual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := d.Auth.Current(cmd.Context(), d.Store)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !s.IsAuthenticated {
				fmt.Fprintln(w, `sin sesión: ejecute "hubctl login"`)
				return nil
			}
			r := auth.ToSessionResponse(s)
			fmt.Fprintf(w, "usuario:  %s\nempresa:  %s\nsucursal: %s\nrol:      %s\n", r.UserID, r.CompanyID, r.BranchID, r.Role)
			return nil
		},
	}
}

func newSetupCompanyCmd(d Deps) *cobra.Command {
	var (
		in       dto.CompanySetupRequest
		logoPath string
	)
	cmd := &cobra.Command{
		Use:   "setup-company",
		Short: "Crear la empresa de la cuenta con su sucursal principal",
		Long: `Crea la empresa, la sucursal "Main Branch" y asigna el rol company_admin.
Los campos omitidos toman los valores por defecto: moneda NGN, zona Africa/Lagos,
año fiscal desde el 1 de enero y arranque contable hoy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logo, err := readLogoFile(logoPath)
			if err != nil {
				return err
			}
			res, err := d.Bootstrap.Setup(cmd.Context(), d.Store, in, logo)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "empresa creada: %s (%s)\n", res.Company.Name, res.Company.ID)
			fmt.Fprintf(w, "sucursal: %s\n", res.Branch.Name)
			fmt.Fprintf(w, "siguiente: %s\n", res.Redirect)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.CompanyName, "name", "", "nombre de la empresa")
	f.StringVar(&in.Currency, "currency", "", "moneda ISO-4217 (por defecto NGN)")
	f.StringVar(&in.Timezone, "timezone", "", "zona horaria IANA (por defecto Africa/Lagos)")
	f.StringVar(&in.FiscalYearStart, "fiscal-year-start", "", "inicio del año fiscal AAAA-MM-DD")
	f.StringVar(&in.AccountingStart, "accounting-start", "", "inicio contable AAAA-MM-DD")
	f.StringVar(&logoPath, "logo", "", "ruta de la imagen del logo")
	return cmd
}

// readLogoFile lee el logo del disco; "" = sin logo.
func readLogoFile(path string) (*dto.LogoFile, error) {
	if path == "" {
		return nil, nil
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("leer logo: %w", err)
	}
	if st.Size() > validation.MaxLogoBytes {
		return nil, fmt.Errorf("el logo no puede superar %d MiB", validation.MaxLogoBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer logo: %w", err)
	}
	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return &dto.LogoFile{Name: filepath.Base(path), ContentType: ctype, Data: data}, nil
}

package dto

import "time"

// DateLayout formato de las fechas de entrada (solo fecha, sin zona).
const DateLayout = "2006-01-02"

// CompanySetupRequest entrada del alta de empresa (JSON o multipart con el archivo "logo").
// Los campos vacíos toman los valores por defecto de ApplyDefaults.
type CompanySetupRequest struct {
	CompanyName     string `json:"company_name" form:"company_name" validate:"required,min=2,max=200"`
	Currency        string `json:"currency" form:"currency" validate:"required,currency"`
	Timezone        string `json:"timezone" form:"timezone" validate:"required,timezone"`
	FiscalYearStart string `json:"fiscal_year_start" form:"fiscal_year_start" validate:"required,datetime=2006-01-02"`
	AccountingStart string `json:"accounting_start" form:"accounting_start" validate:"required,datetime=2006-01-02"`
}

// Valores por defecto del formulario de alta.
const (
	DefaultCurrency = "NGN"
	DefaultTimezone = "Africa/Lagos"
)

// ApplyDefaults completa los campos vacíos: moneda NGN, zona Africa/Lagos,
// inicio fiscal el 1 de enero del año en curso y arranque contable hoy. "Hoy" se toma en la
// zona horaria de la empresa cuando es válida.
func (r *CompanySetupRequest) ApplyDefaults(now time.Time) {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.Timezone == "" {
		r.Timezone = DefaultTimezone
	}
	if loc, err := time.LoadLocation(r.Timezone); err == nil {
		now = now.In(loc)
	}
	if r.FiscalYearStart == "" {
		r.FiscalYearStart = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
	}
	if r.AccountingStart == "" {
		r.AccountingStart = now.Format(DateLayout)
	}
}

// LogoFile archivo de logo opcional adjunto al alta.
type LogoFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Currency        string    `json:"currency"`
	Timezone        string    `json:"timezone"`
	FiscalYearStart string    `json:"fiscal_year_start"`
	AccountingStart string    `json:"accounting_start"`
	LogoURL         string    `json:"logo_url,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// BranchResponse salida de una sucursal.
type BranchResponse struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	Name         string `json:"name"`
	IsMainBranch bool   `json:"is_main_branch"`
}

// CompanySetupResponse salida del alta de empresa. Tiene la misma forma aunque fallen
// la asignación de rol o el logo: esas fallas solo quedan en el log.
type CompanySetupResponse struct {
	Token    string          `json:"token,omitempty"`
	Company  CompanyResponse `json:"company"`
	Branch   BranchResponse  `json:"branch"`
	Session  SessionResponse `json:"session"`
	Redirect string          `json:"redirect"`
}

// CurrentCompanyResponse empresa actual de la sesión con sus sucursales.
type CurrentCompanyResponse struct {
	Company  CompanyResponse  `json:"company"`
	Branches []BranchResponse `json:"branches"`
}

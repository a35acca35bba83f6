package entity

import "time"

// Company representa una organización/tenant del sistema.
// Invariante: FiscalYearStart <= AccountingStart <= hoy (la valida la capa de validación).
type Company struct {
	ID              string
	Name            string
	Currency        string    // ISO-4217, p. ej. NGN
	Timezone        string    // IANA, p. ej. Africa/Lagos
	FiscalYearStart time.Time // solo fecha
	AccountingStart time.Time // solo fecha
	LogoURL         string    // ruta dentro del bucket de logos; vacío = sin logo
	CreatedBy       string    // id de la cuenta que creó la empresa
	CreatedAt       time.Time
}

// MainBranchName nombre de la sucursal que crea el alta de empresa.
const MainBranchName = "Main Branch"

// Branch sucursal de una empresa. Cada empresa nace con exactamente una sucursal principal.
type Branch struct {
	ID           string
	CompanyID    string
	Name         string
	IsMainBranch bool
	CreatedAt    time.Time
}

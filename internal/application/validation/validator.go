// Package validation valida la entrada de los formularios antes de invocar los flujos.
// Es pura y síncrona: no consulta la plataforma remota.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // zonas IANA aunque el contenedor no tenga tzdata

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
)

// MaxLogoBytes tamaño máximo aceptado para el logo.
const MaxLogoBytes = 2 << 20

// Errors errores de validación por campo (nombre JSON del campo -> mensaje).
// errors.Is(err, domain.ErrInvalidInput) es verdadero.
type Errors struct {
	Fields map[string]string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación: " + strings.Join(parts, "; ")
}

func (e *Errors) Unwrap() error { return domain.ErrInvalidInput }

// FieldErrors extrae los mensajes por campo de un error de validación (nil si no lo es).
func FieldErrors(err error) map[string]string {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// CompanyInput payload tipado del alta de empresa, ya validado.
type CompanyInput struct {
	Name            string
	Currency        string
	Timezone        string
	FiscalYearStart time.Time
	AccountingStart time.Time
}

// Validator envuelve go-playground/validator con las reglas propias del dominio.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New construye el validador. now permite fijar "hoy" en los tests; nil usa time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(), now: now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.v.RegisterValidation("currency", isCurrency)
	val.v.RegisterStructValidation(val.companyDates, dto.CompanySetupRequest{})
	return val
}

// Register valida el formulario de registro.
func (val *Validator) Register(in dto.RegisterRequest) error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	return val.check(in)
}

// Login valida el formulario de inicio de sesión.
func (val *Validator) Login(in dto.LoginRequest) error {
	in.Email = strings.TrimSpace(in.Email)
	return val.check(in)
}

// SetRole valida el cambio de rol y devuelve el Role tipado.
func (val *Validator) SetRole(in dto.SetRoleRequest) (entity.Role, error) {
	if err := val.check(in); err != nil {
		return entity.RoleUnassigned, err
	}
	role, _ := entity.ParseRole(in.Role)
	return role, nil
}

// CompanySetup valida el formulario de alta (con los defaults ya aplicados por el caller)
// y devuelve el payload tipado.
func (val *Validator) CompanySetup(in dto.CompanySetupRequest) (*CompanyInput, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Currency = strings.TrimSpace(in.Currency)
	in.Timezone = strings.TrimSpace(in.Timezone)
	if err := val.check(in); err != nil {
		return nil, err
	}
	fiscal, _ := time.Parse(dto.DateLayout, in.FiscalYearStart)
	accounting, _ := time.Parse(dto.DateLayout, in.AccountingStart)
	return &CompanyInput{
		Name:            in.CompanyName,
		Currency:        in.Currency,
		Timezone:        in.Timezone,
		FiscalYearStart: fiscal,
		AccountingStart: accounting,
	}, nil
}

// Logo valida el archivo de logo opcional (nil = sin logo).
func (val *Validator) Logo(f *dto.LogoFile) error {
	if f == nil {
		return nil
	}
	switch {
	case len(f.Data) == 0:
		return &Errors{Fields: map[string]string{"logo": "el archivo de logo está vacío"}}
	case !strings.HasPrefix(f.ContentType, "image/"):
		return &Errors{Fields: map[string]string{"logo": "el logo debe ser una imagen"}}
	case len(f.Data) > MaxLogoBytes:
		return &Errors{Fields: map[string]string{"logo": fmt.Sprintf("el logo no puede superar %d MiB", MaxLogoBytes>>20)}}
	}
	return nil
}

func (val *Validator) check(in interface{}) error {
	err := val.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return &Errors{Fields: fields}
}

// companyDates aplica las reglas de orden de fechas: fiscal <= contable <= hoy.
// Hoy se calcula en la zona horaria de la empresa (UTC si no es válida).
func (val *Validator) companyDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(dto.CompanySetupRequest)

	loc, err := time.LoadLocation(strings.TrimSpace(in.Timezone))
	if err != nil || strings.TrimSpace(in.Timezone) == "" {
		loc = time.UTC
	}
	now := val.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	fiscal, fErr := time.Parse(dto.DateLayout, in.FiscalYearStart)
	accounting, aErr := time.Parse(dto.DateLayout, in.AccountingStart)

	if fErr == nil && fiscal.After(today) {
		sl.ReportError(in.FiscalYearStart, "fiscal_year_start", "FiscalYearStart", "not_future", "")
	}
	if aErr == nil && accounting.After(today) {
		sl.ReportError(in.AccountingStart, "accounting_start", "AccountingStart", "not_future", "")
	}
	if fErr == nil && aErr == nil && fiscal.After(accounting) && !fiscal.After(today) {
		sl.ReportError(in.FiscalYearStart, "fiscal_year_start", "FiscalYearStart", "before_accounting", "")
	}
}

func isCurrency(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 || strings.ToUpper(code) != code {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

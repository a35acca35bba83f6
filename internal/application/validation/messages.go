package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// fieldMessages mensajes específicos por "campo.tag".
var fieldMessages = map[string]string{
	"full_name.required":                  "el nombre completo es requerido",
	"full_name.min":                       "el nombre completo es requerido",
	"email.required":                      "ingrese un email válido",
	"email.email":                         "ingrese un email válido",
	"password.required":                   "la contraseña debe tener al menos 6 caracteres",
	"password.min":                        "la contraseña debe tener al menos 6 caracteres",
	"company_name.required":               "el nombre de la empresa es requerido",
	"company_name.min":                    "el nombre de la empresa es requerido",
	"currency.required":                   "seleccione una moneda base",
	"currency.currency":                   "la moneda debe ser un código ISO-4217 (p. ej. NGN)",
	"timezone.required":                   "seleccione una zona horaria",
	"timezone.timezone":                   "zona horaria desconocida",
	"fiscal_year_start.required":          "la fecha de inicio del año fiscal es requerida",
	"fiscal_year_start.not_future":        "el inicio del año fiscal no puede estar en el futuro",
	"fiscal_year_start.before_accounting": "el inicio del año fiscal debe ser anterior o igual al inicio contable",
	"accounting_start.required":           "la fecha de inicio contable es requerida",
	"accounting_start.not_future":         "el inicio contable no puede estar en el futuro",
	"role.oneof":                          "rol desconocido",
}

func message(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "campo requerido"
	case "min":
		return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("no puede superar %s caracteres", fe.Param())
	case "datetime":
		return "formato de fecha inválido (use AAAA-MM-DD)"
	default:
		return "valor inválido"
	}
}

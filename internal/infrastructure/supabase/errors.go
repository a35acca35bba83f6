package supabase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jhoicas/Wasper-api/internal/domain"
)

// APIError error devuelto por la plataforma.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// Unwrap clasifica el error en el sentinel de dominio más cercano.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusConflict || e.Code == "23505":
		return domain.ErrDuplicate
	case e.Status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.Status == http.StatusForbidden || e.Code == "42501":
		return domain.ErrForbidden
	}
	return domain.ErrRemote
}

// decodeError lee los formatos de error de GoTrue (msg, error_description), PostgREST
// (message, code) y Storage (error, message, statusCode).
func decodeError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}
	res := gjson.GetManyBytes(body, "msg", "error_description", "message", "error", "error_code", "code")
	for _, r := range res[:4] {
		if r.Exists() && r.String() != "" {
			e.Message = r.String()
			break
		}
	}
	if res[4].Exists() {
		e.Code = res[4].String()
	} else if res[5].Exists() {
		e.Code = res[5].String()
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// signUpError traduce los rechazos del registro (4xx) a errores de dominio.
// Las fallas 5xx o de red quedan como están aunque el mensaje mencione la contraseña.
func signUpError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status < 400 || apiErr.Status >= 500 {
		return err
	}
	msg := strings.ToLower(apiErr.Code + " " + apiErr.Message)
	switch {
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %v", domain.ErrEmailAlreadyExists, err)
	case strings.Contains(msg, "password"):
		return fmt.Errorf("%w: %v", domain.ErrWeakPassword, err)
	}
	return err
}

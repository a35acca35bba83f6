package dto

// ErrorResponse cuerpo de error HTTP.
// Fields lleva los mensajes por campo de la validación; Redirect la pantalla a la que debe ir el cliente.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Rutas de navegación que devuelven los flujos (las resuelve el cliente).
const (
	RouteLogin        = "/login"
	RouteCompanySetup = "/company-setup"
	RouteDashboard    = "/dashboard"
)

package dto

// RegisterRequest entrada para registro: nombre completo, email y password.
type RegisterRequest struct {
	FullName string `json:"full_name" form:"full_name" validate:"required,min=3"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// RegisterResponse salida del registro; el cliente debe iniciar sesión después.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
	Message   string `json:"message"`
	Redirect  string `json:"redirect"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// LoginResponse salida con token JWT de la API, la sesión y la pantalla siguiente.
type LoginResponse struct {
	Token    string          `json:"token"`
	Session  SessionResponse `json:"session"`
	Redirect string          `json:"redirect"`
}

// SessionResponse vista pública de la sesión (sin el token de la plataforma).
type SessionResponse struct {
	UserID          string `json:"user_id"`
	CompanyID       string `json:"company_id"`
	BranchID        string `json:"branch_id"`
	Role            string `json:"role"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// SetRoleRequest entrada para cambiar el rol actual de la sesión.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=super_admin company_admin finance_manager accountant staff"`
}

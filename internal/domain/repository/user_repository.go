package repository

import (
	"context"

	"github.com/jhoicas/Wasper-api/internal/domain/entity"
)

// IdentityProvider puerto hacia el proveedor de identidad alojado.
type IdentityProvider interface {
	// SignUp crea la cuenta y devuelve su id. domain.ErrEmailAlreadyExists si el email ya existe.
	SignUp(ctx context.Context, email, password string, profile entity.Profile) (string, error)
	// SignInWithPassword devuelve domain.ErrInvalidCredentials si email/password no coinciden.
	SignInWithPassword(ctx context.Context, email, password string) (*entity.AuthSession, error)
	// GetSession devuelve nil, nil si el token ya no representa una sesión activa.
	GetSession(ctx context.Context, accessToken string) (*entity.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
}

// RoleAssignmentRepository puerto de la tabla user_role_assignments.
type RoleAssignmentRepository interface {
	// Create inserta directamente la asignación (sujeto a las políticas RLS del store).
	Create(ctx context.Context, assignment *entity.RoleAssignment) error
	// FindByUser devuelve la asignación del usuario o nil, nil si no tiene (maybe-single).
	FindByUser(ctx context.Context, userID string) (*entity.RoleAssignment, error)
}

// RoleProvisioner procedimiento privilegiado que asigna company_admin sin pasar por las
// políticas RLS de user_role_assignments (evita la recursión de políticas).
type RoleProvisioner interface {
	AssignCompanyAdmin(ctx context.Context, userID, companyID string) error
}

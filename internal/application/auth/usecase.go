// Package auth implementa registro, inicio y cierre de sesión contra el proveedor de identidad.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/jwt"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// RegisteredMessage mensaje que acompaña un registro exitoso.
const RegisteredMessage = "registro exitoso, inicie sesión"

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Sessions entrega el store de sesión de un cliente (session.Manager o session.Fixed).
type Sessions interface {
	For(sessionID string) *session.Store
}

// UseCase casos de uso de autenticación.
type UseCase struct {
	identity  repository.IdentityProvider
	roles     repository.RoleAssignmentRepository
	sessions  Sessions
	validator *validation.Validator
	jwtCfg    JWTConfig
	log       *logger.Logger
}

// NewUseCase construye el caso de uso de auth.
func NewUseCase(identity repository.IdentityProvider, roles repository.RoleAssignmentRepository, sessions Sessions,
	validator *validation.Validator, jwtCfg JWTConfig, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	if validator == nil {
		validator = validation.New(nil)
	}
	return &UseCase{identity: identity, roles: roles, sessions: sessions, validator: validator, jwtCfg: jwtCfg, log: log}
}

// Register crea la cuenta con el nombre completo como perfil. El usuario debe iniciar sesión después.
// Devuelve domain.ErrEmailAlreadyExists, domain.ErrWeakPassword o domain.ErrAccountCreation.
func (uc *UseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := uc.validator.Register(in); err != nil {
		return nil, err
	}
	id, err := uc.identity.SignUp(ctx, in.Email, in.Password, entity.Profile{FullName: in.FullName})
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyExists), errors.Is(err, domain.ErrWeakPassword):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domain.ErrAccountCreation, err)
	case id == "":
		return nil, fmt.Errorf("%w: el proveedor no devolvió el id de la cuenta", domain.ErrAccountCreation)
	}
	uc.log.Info().Str("user_id", id).Msg("cuenta registrada")
	return &dto.RegisterResponse{AccountID: id, Message: RegisteredMessage, Redirect: dto.RouteLogin}, nil
}

// Login verifica credenciales, carga la asignación de rol, abre la sesión del cliente y emite el JWT.
// Una falla al consultar el rol no impide el login: la sesión queda sin empresa.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := uc.validator.Login(in); err != nil {
		return nil, err
	}
	signed, err := uc.identity.SignInWithPassword(ctx, in.Email, in.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: iniciar sesión: %v", domain.ErrRemote, err)
	}

	sess := entity.Session{
		UserID:          signed.AccountID,
		Role:            entity.RoleUnassigned,
		IsAuthenticated: true,
		AccessToken:     signed.AccessToken,
	}
	assignment, err := uc.roles.FindByUser(repository.WithAccessToken(ctx, signed.AccessToken), signed.AccountID)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", signed.AccountID).Msg("consultar asignación de rol")
	} else if assignment != nil {
		sess.CompanyID = assignment.CompanyID
		sess.BranchID = assignment.BranchID
		sess.Role = assignment.Role
	}

	sid := uuid.New().String()
	if err := uc.sessions.For(sid).Set(ctx, sess); err != nil {
		return nil, err
	}
	token, err := uc.IssueToken(sid, sess)
	if err != nil {
		return nil, err
	}

	redirect := dto.RouteCompanySetup
	if sess.HasCompany() {
		redirect = dto.RouteDashboard
	}
	return &dto.LoginResponse{Token: token, Session: ToSessionResponse(sess), Redirect: redirect}, nil
}

// IssueToken firma el JWT de la API para la sesión indicada.
func (uc *UseCase) IssueToken(sessionID string, s entity.Session) (string, error) {
	return jwt.Generate(uc.jwtCfg.Secret, sessionID, s.UserID, s.CompanyID, s.Role.String(), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
}

// Logout cierra la sesión en el proveedor. Si falla la sesión local se conserva.
func (uc *UseCase) Logout(ctx context.Context, store *session.Store) error {
	s := store.Get(ctx)
	if s.AccessToken != "" {
		if err := uc.identity.SignOut(ctx, s.AccessToken); err != nil {
			return fmt.Errorf("%w: cerrar sesión: %v", domain.ErrRemote, err)
		}
	}
	return store.Clear(ctx)
}

// Current devuelve la sesión del cliente. Si el proveedor ya no reconoce el token la sesión
// local se limpia; un error del proveedor deja la sesión como está.
func (uc *UseCase) Current(ctx context.Context, store *session.Store) (entity.Session, error) {
	s := store.Get(ctx)
	if !s.IsAuthenticated || s.AccessToken == "" {
		return s, nil
	}
	active, err := uc.identity.GetSession(ctx, s.AccessToken)
	if err != nil {
		return s, fmt.Errorf("%w: consultar sesión: %v", domain.ErrRemote, err)
	}
	if active == nil || active.AccountID != s.UserID {
		if err := store.Clear(ctx); err != nil {
			uc.log.Error().Err(err).Str("user_id", s.UserID).Msg("limpiar sesión vencida")
		}
		return entity.DefaultSession(), nil
	}
	return s, nil
}

// SetRole cambia el rol actual de la sesión (cambio de rol de super_admin).
func (uc *UseCase) SetRole(ctx context.Context, store *session.Store, in dto.SetRoleRequest) (entity.Session, error) {
	role, err := uc.validator.SetRole(in)
	if err != nil {
		return entity.Session{}, err
	}
	if err := store.SetRole(ctx, role); err != nil {
		return store.Get(ctx), err
	}
	return store.Get(ctx), nil
}

// ToSessionResponse vista pública de la sesión.
func ToSessionResponse(s entity.Session) dto.SessionResponse {
	return dto.SessionResponse{
		UserID:          s.UserID,
		CompanyID:       s.CompanyID,
		BranchID:        s.BranchID,
		Role:            s.Role.String(),
		IsAuthenticated: s.IsAuthenticated,
	}
}

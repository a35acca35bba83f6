// Package access decide si una sesión puede entrar a una pantalla o endpoint del tenant.
package access

import (
	"context"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// Decision resultado del control de acceso.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectCompanySetup
)

// Redirect ruta a la que debe ir el cliente ("" si se permite el acceso).
func (d Decision) Redirect() string {
	switch d {
	case RedirectLogin:
		return dto.RouteLogin
	case RedirectCompanySetup:
		return dto.RouteCompanySetup
	}
	return ""
}

// Gate controles "debe estar autenticado" y "debe tener empresa".
type Gate struct {
	roles repository.RoleAssignmentRepository
	log   *logger.Logger
}

func NewGate(roles repository.RoleAssignmentRepository, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{roles: roles, log: log}
}

// Check con requireCompany y sin empresa en la sesión consulta la asignación de rol del
// usuario; un error en esa consulta manda al login.
func (g *Gate) Check(ctx context.Context, s entity.Session, requireCompany bool) Decision {
	if !s.IsAuthenticated || s.UserID == "" {
		return RedirectLogin
	}
	if !requireCompany || s.HasCompany() {
		return Allow
	}
	a, err := g.roles.FindByUser(repository.WithAccessToken(ctx, s.AccessToken), s.UserID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", s.UserID).Msg("consultar asignación de rol")
		return RedirectLogin
	}
	if a == nil || a.CompanyID == "" {
		return RedirectCompanySetup
	}
	return Allow
}

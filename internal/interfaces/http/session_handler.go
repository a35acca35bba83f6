package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/dto"
)

// SessionHandler expone la sesión actual del cliente.
type SessionHandler struct {
	uc *auth.UseCase
}

func NewSessionHandler(uc *auth.UseCase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// Get godoc
// @Summary      Sesión actual
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/session [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.Current(c.UserContext(), GetSessionStore(c))
	if err != nil {
		return writeError(c, err)
	}
	if !s.IsAuthenticated {
		return unauthenticated(c, "SESSION_EXPIRED", "la sesión ya no está activa")
	}
	return c.JSON(auth.ToSessionResponse(s))
}

// SetRole godoc
// @Summary      Cambiar el rol actual
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.SetRoleRequest  true  "rol"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/session/role [put]
func (h *SessionHandler) SetRole(c *fiber.Ctx) error {
	var in dto.SetRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.uc.SetRole(c.UserContext(), GetSessionStore(c), in)
	if err != nil {
		return writeError(c, err)
	}
	token, err := h.uc.IssueToken(GetSessionID(c), s)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LoginResponse{Token: token, Session: auth.ToSessionResponse(s), Redirect: dto.RouteDashboard})
}

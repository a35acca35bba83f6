package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Wasper-api/internal/application/access"
	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/jwt"
)

// Locals keys que deja AuthMiddleware en Fiber.
const (
	LocalSessionID = "session_id"
	LocalStore     = "session_store"
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
)

// SessionSource entrega el store de sesión de un cliente (lo cumple *session.Manager).
type SessionSource interface {
	For(sessionID string) *session.Store
}

// AuthMiddleware valida el Bearer Token JWT, carga la sesión del cliente (claim sid) y deja
// en Locals el store y los datos de la sesión. La sesión manda sobre los claims: el token solo
// identifica al cliente. El contexto de usuario lleva el token de la plataforma para las
// llamadas con alcance de fila.
func AuthMiddleware(jwtSecret string, sessions SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthenticated(c, "MISSING_TOKEN", "Authorization header requerido")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthenticated(c, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthenticated(c, "MISSING_TOKEN", "token vacío")
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return unauthenticated(c, "INVALID_TOKEN", "token inválido o expirado")
		}

		store := sessions.For(claims.SessionID)
		s := store.Get(c.UserContext())
		if !s.IsAuthenticated || s.UserID == "" {
			return unauthenticated(c, "SESSION_EXPIRED", "la sesión ya no está activa")
		}

		c.Locals(LocalSessionID, claims.SessionID)
		c.Locals(LocalStore, store)
		c.Locals(LocalUserID, s.UserID)
		c.Locals(LocalCompanyID, s.CompanyID)
		c.Locals(LocalRole, s.Role.String())
		c.SetUserContext(repository.WithAccessToken(c.UserContext(), s.AccessToken))
		return c.Next()
	}
}

// RequireRole autoriza solo los roles indicados. Debe ir después de AuthMiddleware.
// Sin rol asignado responde 401 MISSING_ROLE; con otro rol 403 FORBIDDEN.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" || role == entity.RoleUnassigned.String() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "la sesión no tiene rol asignado"})
		}
		if _, ok := allowed[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
		}
		return c.Next()
	}
}

// RequireCompany exige empresa: 401 con redirect a /login o 403 con redirect a /company-setup.
func RequireCompany(gate *access.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := GetSessionStore(c)
		if store == nil {
			return unauthenticated(c, "UNAUTHENTICATED", "inicie sesión")
		}
		switch d := gate.Check(c.UserContext(), store.Get(c.UserContext()), true); d {
		case access.RedirectLogin:
			return unauthenticated(c, "UNAUTHENTICATED", "inicie sesión")
		case access.RedirectCompanySetup:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code: "COMPANY_REQUIRED", Message: "cree su empresa para continuar", Redirect: d.Redirect(),
			})
		}
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg, Redirect: dto.RouteLogin})
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el UserID de la sesión (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetCompanyID devuelve el CompanyID de la sesión; vacío si aún no tiene empresa.
func GetCompanyID(c *fiber.Ctx) string { return localString(c, LocalCompanyID) }

// GetRole devuelve el rol actual de la sesión.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetSessionID devuelve el sid del token.
func GetSessionID(c *fiber.Ctx) string { return localString(c, LocalSessionID) }

// GetSessionStore devuelve el store de sesión del cliente o nil.
func GetSessionStore(c *fiber.Ctx) *session.Store {
	s, _ := c.Locals(LocalStore).(*session.Store)
	return s
}

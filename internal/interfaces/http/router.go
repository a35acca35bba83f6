package http

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Wasper-api/internal/application/access"
	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

// RequestObserver recibe cada petición atendida (lo cumple *metrics.Metrics).
type RequestObserver interface {
	ObserveRequest(method, route, status string, d time.Duration)
	ObserveRateLimited(route string)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.UseCase
	BootstrapUC *bootstrap.UseCase
	Gate        *access.Gate
	Sessions    SessionSource
	Companies   repository.CompanyRepository
	Branches    repository.BranchRepository
	Roles       repository.RoleAssignmentRepository
	JWTSecret   string
	ServiceName string

	// Limiter compartido; si es nil se crea uno con RateLimitRPS/RateLimitBurst.
	Limiter        *RateLimiter
	RateLimitRPS   int
	RateLimitBurst int

	Observer       RequestObserver // nil = sin métricas
	MetricsHandler nethttp.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Observer != nil {
		app.Use(RequestMetrics(deps.Observer))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")
	requireAuth := AuthMiddleware(deps.JWTSecret, deps.Sessions)

	// Auth (público, con límite por IP)
	var observer rateObserver
	if deps.Observer != nil {
		observer = deps.Observer
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst, observer)
	}
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", limiter.Handler(), authHandler.Register)
	authGroup.Post("/login", limiter.Handler(), authHandler.Login)
	authGroup.Post("/logout", requireAuth, authHandler.Logout)

	// Sesión (protegido)
	sessionHandler := NewSessionHandler(deps.AuthUC)
	sess := api.Group("/session", requireAuth)
	sess.Get("/", sessionHandler.Get)
	sess.Put("/role", RequireRole(entity.RoleSuperAdmin.String()), sessionHandler.SetRole)

	// Empresas (protegido; la consulta exige empresa)
	companyHandler := NewCompanyHandler(deps.BootstrapUC, deps.AuthUC, deps.Companies, deps.Branches, deps.Roles)
	companies := api.Group("/companies", requireAuth)
	companies.Post("/setup", companyHandler.Setup)
	companies.Get("/current", RequireCompany(deps.Gate), companyHandler.Current)
}

// RequestMetrics cuenta peticiones por ruta registrada y status.
func RequestMetrics(obs RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		// Method y Path apuntan al buffer de fasthttp; Prometheus guarda las etiquetas.
		obs.ObserveRequest(utils.CopyString(c.Method()), utils.CopyString(c.Route().Path), strconv.Itoa(status), time.Since(start))
		return err
	}
}

package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"golang.org/x/time/rate"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
)

// rateObserver recibe los rechazos (métricas); puede ser nil.
type rateObserver interface {
	ObserveRateLimited(route string)
}

// RateLimiter limita peticiones por IP con un token bucket por clave.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
	observer rateObserver
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter crea el limitador. rps <= 0 desactiva el límite.
func NewRateLimiter(rps, burst int, observer rateObserver) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rate:     lim,
		burst:    burst,
		idle:     10 * time.Minute,
		observer: observer,
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup descarta los visitantes sin peticiones en la ventana de inactividad.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idle)
	for k, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, k)
		}
	}
}

// StartCleanup ejecuta Cleanup cada interval hasta que ctx termine.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Visitors cantidad de IPs con limitador vivo.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Handler middleware Fiber; responde 429 cuando la IP agota su cupo.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// La IP queda como clave del mapa y la ruta como etiqueta: ambas se copian.
		if rl.limiter(utils.CopyString(c.IP())).Allow() {
			return c.Next()
		}
		if rl.observer != nil {
			rl.observer.ObserveRateLimited(utils.CopyString(c.Path()))
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde",
		})
	}
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Wasper-api/internal/application/access"
	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/kv"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/memory"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Wasper-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Wasper-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "wasper-test"
	testExpMin    = 60
)

func fixedNow() time.Time { return time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC) }

// env aplicación completa sobre la plataforma en memoria.
type env struct {
	app      *fiber.App
	platform *memory.Platform
	kv       *kv.Memory
	sessions *session.Manager
	metrics  *metrics.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithLimit(t, 0, 0)
}

func newEnvWithLimit(t *testing.T, rps, burst int) *env {
	t.Helper()
	e := &env{platform: memory.NewPlatform(), kv: kv.NewMemory(), metrics: metrics.New()}
	e.sessions = session.NewManager(e.kv, nil)

	v := validation.New(fixedNow)
	roles := e.platform.RoleAssignmentRepo()
	authUC := auth.NewUseCase(e.platform.Identity(), roles, e.sessions, v,
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, nil)
	setupUC := bootstrap.NewUseCase(bootstrap.Deps{
		Companies:   e.platform.CompanyRepo(),
		Branches:    e.platform.BranchRepo(),
		Roles:       roles,
		Provisioner: e.platform.Provisioner(),
		Storage:     e.platform.Storage(),
		Validator:   v,
		Observer:    e.metrics,
		Now:         fixedNow,
	})

	e.app = fiber.New()
	apphttp.Router(e.app, apphttp.RouterDeps{
		AuthUC:         authUC,
		BootstrapUC:    setupUC,
		Gate:           access.NewGate(roles, nil),
		Sessions:       e.sessions,
		Companies:      e.platform.CompanyRepo(),
		Branches:       e.platform.BranchRepo(),
		Roles:          roles,
		JWTSecret:      testJWTSecret,
		ServiceName:    "wasper-test",
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		Observer:       e.metrics,
		MetricsHandler: e.metrics.Handler(),
	})
	return e
}

// sessionToken guarda la sesión bajo un sid nuevo y devuelve el header Authorization.
func (e *env) sessionToken(t *testing.T, sid string, s entity.Session) string {
	t.Helper()
	require.NoError(t, e.sessions.For(sid).Set(context.Background(), s))
	tok, err := pkgjwt.Generate(testJWTSecret, sid, s.UserID, s.CompanyID, s.Role.String(), testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *env) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonRequest(method, path string, body interface{}, authHeader string) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// multipartRequest arma un multipart con campos de texto y, si logo != nil, el archivo "logo".
func multipartRequest(t *testing.T, path string, fields map[string]string, logo []byte, logoType, authHeader string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if logo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="logo"; filename="logo.png"`)
		h.Set("Content-Type", logoType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(logo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", authHeader)
	return req
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

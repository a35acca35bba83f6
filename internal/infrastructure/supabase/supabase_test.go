package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

type captured struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// fakePlatform servidor httptest que responde status/body y guarda la última request.
func fakePlatform(t *testing.T, status int, body string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.header = r.Header.Clone()
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL + "/", AnonKey: "anon", ServiceKey: "service"})
	require.NoError(t, err)
	return c, got
}

func TestNew_RequiereURLYAnonKey(t *testing.T) {
	_, err := New(Config{AnonKey: "anon"})
	assert.Error(t, err)
	_, err = New(Config{URL: "http://x"})
	assert.Error(t, err)
}

func TestNew_SinTimeoutLocal_MandaElContexto(t *testing.T) {
	c, err := New(Config{URL: "http://x", AnonKey: "anon"})
	require.NoError(t, err)
	assert.Zero(t, c.httpClient.Timeout)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err = New(Config{URL: srv.URL, AnonKey: "anon"})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewRoleAssignmentRepository(c).FindByUser(ctx, "u-1")
	assert.Error(t, err, "la llamada termina con el contexto del llamador")
}

func TestClient_TokenDelContexto(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK, `[]`)

	_, err := NewRoleAssignmentRepository(c).FindByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "anon", got.header.Get("apikey"))
	assert.Equal(t, "Bearer anon", got.header.Get("Authorization"))

	ctx := repository.WithAccessToken(context.Background(), "user-token")
	_, err = NewRoleAssignmentRepository(c).FindByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", got.header.Get("Authorization"))
}

func TestCompanyRepository_Create(t *testing.T) {
	c, got := fakePlatform(t, http.StatusCreated, `[{
		"id": "c-1", "name": "Acme", "currency": "NGN", "timezone": "Africa/Lagos",
		"fiscal_year_start": "2024-01-01", "accounting_start": "2024-06-01",
		"logo_url": null, "created_by": "u-1", "created_at": "2024-07-15T10:00:00Z"
	}]`)

	created, err := NewCompanyRepository(c).Create(context.Background(), &entity.Company{
		Name:            "Acme",
		Currency:        "NGN",
		Timezone:        "Africa/Lagos",
		FiscalYearStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AccountingStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:       "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", created.ID)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), created.AccountingStart)
	assert.Empty(t, created.LogoURL)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/rest/v1/companies", got.path)
	assert.Equal(t, "return=representation", got.header.Get("Prefer"))
	assert.JSONEq(t, `{
		"name": "Acme", "currency": "NGN", "timezone": "Africa/Lagos",
		"fiscal_year_start": "2024-01-01", "accounting_start": "2024-06-01", "created_by": "u-1"
	}`, string(got.body))
}

func TestCompanyRepository_UpdateLogo(t *testing.T) {
	c, got := fakePlatform(t, http.StatusNoContent, ``)

	require.NoError(t, NewCompanyRepository(c).UpdateLogo(context.Background(), "c-1", "c-1/abc.png"))
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "id=eq.c-1", got.query)
	assert.JSONEq(t, `{"logo_url":"c-1/abc.png"}`, string(got.body))
}

func TestCompanyRepository_ErrorRLS(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusForbidden,
		`{"code":"42501","message":"new row violates row-level security policy for table \"companies\""}`)

	_, err := NewCompanyRepository(c).Create(context.Background(), &entity.Company{Name: "Acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "42501", apiErr.Code)
	assert.Contains(t, apiErr.Message, "row-level security")
}

func TestBranchRepository_Create(t *testing.T) {
	c, got := fakePlatform(t, http.StatusCreated,
		`[{"id":"b-1","company_id":"c-1","name":"Main Branch","is_main_branch":true}]`)

	b, err := NewBranchRepository(c).Create(context.Background(), &entity.Branch{
		CompanyID: "c-1", Name: entity.MainBranchName, IsMainBranch: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.True(t, b.IsMainBranch)
	assert.JSONEq(t, `{"company_id":"c-1","name":"Main Branch","is_main_branch":true}`, string(got.body))
}

func TestRoleAssignmentRepository_FindByUser(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK,
		`[{"id":"a-1","user_id":"u-1","company_id":"c-1","branch_id":null,"role":"company_admin"}]`)

	a, err := NewRoleAssignmentRepository(c).FindByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "c-1", a.CompanyID)
	assert.Equal(t, entity.RoleCompanyAdmin, a.Role)
	assert.Empty(t, a.BranchID)
	assert.Contains(t, got.query, "user_id=eq.u-1")
	assert.Contains(t, got.query, "order=created_at.asc", "con varias asignaciones gana la más antigua")
	assert.Contains(t, got.query, "limit=1")
}

func TestRoleAssignmentRepository_FindByUser_RolDesconocido(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusOK, `[{"id":"a-1","user_id":"u-1","company_id":"c-1","role":"owner"}]`)

	a, err := NewRoleAssignmentRepository(c).FindByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUnassigned, a.Role)
}

func TestRoleAssignmentRepository_FindByUser_SinFilas(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusOK, `[]`)

	a, err := NewRoleAssignmentRepository(c).FindByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestRPCProvisioner(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK, `null`)

	require.NoError(t, NewRPCProvisioner(c).AssignCompanyAdmin(context.Background(), "u-1", "c-1"))
	assert.Equal(t, "/rest/v1/rpc/assign_company_admin_role", got.path)
	assert.JSONEq(t, `{"user_uuid":"u-1","company_uuid":"c-1"}`, string(got.body))
}

func TestRPCProvisioner_ErrorRecursion(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusInternalServerError,
		`{"code":"42P17","message":"infinite recursion detected in policy for relation \"user_role_assignments\""}`)

	err := NewRPCProvisioner(c).AssignCompanyAdmin(context.Background(), "u-1", "c-1")
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestFunctionProvisioner(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, NewFunctionProvisioner(c).AssignCompanyAdmin(context.Background(), "u-1", "c-1"))
	assert.Equal(t, "/functions/v1/assign-company-role", got.path)
	assert.JSONEq(t, `{"userId":"u-1","companyId":"c-1","role":"company_admin"}`, string(got.body))
}

func TestServiceProvisioner_UsaServiceKey(t *testing.T) {
	c, got := fakePlatform(t, http.StatusCreated, ``)
	p, err := NewServiceProvisioner(c)
	require.NoError(t, err)

	ctx := repository.WithAccessToken(context.Background(), "user-token")
	require.NoError(t, p.AssignCompanyAdmin(ctx, "u-1", "c-1"))
	assert.Equal(t, "/rest/v1/user_role_assignments", got.path)
	assert.Equal(t, "service", got.header.Get("apikey"))
	assert.Equal(t, "Bearer service", got.header.Get("Authorization"))
}

func TestStorage_Upload(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK, `{"Key":"company-logos/c-1/x.png"}`)

	require.NoError(t, NewStorage(c).Upload(context.Background(), "company-logos", "c-1/x.png", "image/png", []byte{1, 2, 3}))
	assert.Equal(t, "/storage/v1/object/company-logos/c-1/x.png", got.path)
	assert.Equal(t, "image/png", got.header.Get("Content-Type"))
	assert.Equal(t, []byte{1, 2, 3}, got.body)
}

func TestIdentity_SignUp(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK, `{"id":"u-1","email":"ada@example.com"}`)

	id, err := NewIdentity(c).SignUp(context.Background(), "ada@example.com", "secret1", entity.Profile{FullName: "Ada Obi"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, map[string]interface{}{"full_name": "Ada Obi"}, body["data"])
}

func TestIdentity_SignUp_ConSesion(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusOK, `{"access_token":"t","user":{"id":"u-2"}}`)

	id, err := NewIdentity(c).SignUp(context.Background(), "ada@example.com", "secret1", entity.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "u-2", id)
}

func TestIdentity_SignUp_Errores(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"email existente", `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`, domain.ErrEmailAlreadyExists},
		{"password débil", `{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`, domain.ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := fakePlatform(t, http.StatusUnprocessableEntity, tc.body)
			_, err := NewIdentity(c).SignUp(context.Background(), "ada@example.com", "x", entity.Profile{})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIdentity_SignUp_Falla5xxNoEsPasswordDebil(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusInternalServerError,
		`{"code":500,"msg":"could not hash password: internal error"}`)

	_, err := NewIdentity(c).SignUp(context.Background(), "ada@example.com", "secret1", entity.Profile{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrWeakPassword)
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestIdentity_SignIn(t *testing.T) {
	c, got := fakePlatform(t, http.StatusOK,
		`{"access_token":"at","token_type":"bearer","expires_in":3600,"user":{"id":"u-1","email":"ada@example.com"}}`)

	s, err := NewIdentity(c).SignInWithPassword(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.AccountID)
	assert.Equal(t, "at", s.AccessToken)
	assert.False(t, s.ExpiresAt.IsZero())
	assert.Equal(t, "/auth/v1/token", got.path)
	assert.Equal(t, "grant_type=password", got.query)
}

func TestIdentity_SignIn_CredencialesInvalidas(t *testing.T) {
	c, _ := fakePlatform(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)

	_, err := NewIdentity(c).SignInWithPassword(context.Background(), "ada@example.com", "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentity_GetSession_TokenVencido(t *testing.T) {
	c, got := fakePlatform(t, http.StatusUnauthorized, `{"msg":"invalid JWT"}`)

	s, err := NewIdentity(c).GetSession(context.Background(), "viejo")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, "Bearer viejo", got.header.Get("Authorization"))
}

func TestIdentity_SignOut(t *testing.T) {
	c, got := fakePlatform(t, http.StatusNoContent, ``)

	require.NoError(t, NewIdentity(c).SignOut(context.Background(), "at"))
	assert.Equal(t, "/auth/v1/logout", got.path)
	assert.Equal(t, "Bearer at", got.header.Get("Authorization"))
}

func TestDecodeError_CuerpoNoJSON(t *testing.T) {
	e := decodeError(http.StatusBadGateway, []byte("upstream down"))
	assert.Equal(t, "upstream down", e.Message)
	assert.ErrorIs(t, e, domain.ErrRemote)
}

package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/kv"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/memory"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

var errRemoto = errors.New("falla simulada")

func fixedNow() time.Time { return time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC) }

func acme() dto.CompanySetupRequest {
	return dto.CompanySetupRequest{
		CompanyName:     "Acme",
		Currency:        "NGN",
		Timezone:        "Africa/Lagos",
		FiscalYearStart: "2024-01-01",
		AccountingStart: "2024-06-01",
	}
}

type recorder struct {
	mu    sync.Mutex
	steps map[string]bootstrap.Outcome
}

func (r *recorder) ObserveStep(step string, outcome bootstrap.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps == nil {
		r.steps = make(map[string]bootstrap.Outcome)
	}
	r.steps[step] = outcome
}

type fixture struct {
	platform *memory.Platform
	kv       *kv.Memory
	store    *session.Store
	uc       *bootstrap.UseCase
	logs     *bytes.Buffer
	observed *recorder
}

func newFixture(t *testing.T, sess entity.Session) *fixture {
	t.Helper()
	f := &fixture{
		platform: memory.NewPlatform(),
		kv:       kv.NewMemory(),
		logs:     &bytes.Buffer{},
		observed: &recorder{},
	}
	f.store = session.NewStore(f.kv, "", nil)
	if sess.IsAuthenticated {
		require.NoError(t, f.store.Set(context.Background(), sess))
	}
	f.uc = bootstrap.NewUseCase(bootstrap.Deps{
		Companies:   f.platform.CompanyRepo(),
		Branches:    f.platform.BranchRepo(),
		Roles:       f.platform.RoleAssignmentRepo(),
		Provisioner: f.platform.Provisioner(),
		Storage:     f.platform.Storage(),
		Logger:      logger.New(logger.Config{Env: "production", Level: "debug", Out: f.logs}),
		Observer:    f.observed,
		Now:         fixedNow,
	})
	return f
}

func loggedIn() entity.Session {
	return entity.Session{UserID: "user-1", IsAuthenticated: true, AccessToken: "tok-1"}
}

func outcomes(steps []bootstrap.StepResult) map[string]bootstrap.Outcome {
	out := make(map[string]bootstrap.Outcome, len(steps))
	for _, s := range steps {
		out[s.Step] = s.Outcome
	}
	return out
}

// ----- camino feliz -----

func TestSetup_TodoExitoso(t *testing.T) {
	f := newFixture(t, loggedIn())
	ctx := context.Background()

	res, err := f.uc.Setup(ctx, f.store, acme(), nil)
	require.NoError(t, err)

	companies := f.platform.Companies()
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "user-1", companies[0].CreatedBy)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), companies[0].FiscalYearStart)

	branches := f.platform.Branches()
	require.Len(t, branches, 1)
	assert.Equal(t, "Main Branch", branches[0].Name)
	assert.True(t, branches[0].IsMainBranch)
	assert.Equal(t, companies[0].ID, branches[0].CompanyID)

	assignments := f.platform.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, entity.RoleCompanyAdmin, assignments[0].Role)
	assert.Equal(t, companies[0].ID, assignments[0].CompanyID)
	assert.Equal(t, 0, f.platform.Calls(memory.OpCreateAssignment), "sin fallback si el procedimiento responde bien")

	want := entity.Session{
		UserID:          "user-1",
		CompanyID:       companies[0].ID,
		Role:            entity.RoleCompanyAdmin,
		IsAuthenticated: true,
		AccessToken:     "tok-1",
	}
	assert.Equal(t, want, res.Session)
	assert.Equal(t, want, session.NewStore(f.kv, "", nil).Get(ctx), "la sesión queda persistida")
	assert.True(t, res.RoleAssigned)
	assert.Equal(t, dto.RouteDashboard, res.Redirect)

	assert.Equal(t, map[string]bootstrap.Outcome{
		bootstrap.StepCreateCompany:    bootstrap.OutcomeSuccess,
		bootstrap.StepCreateMainBranch: bootstrap.OutcomeSuccess,
		bootstrap.StepAssignAdminRole:  bootstrap.OutcomeSuccess,
		bootstrap.StepUploadLogo:       bootstrap.OutcomeSkipped,
		bootstrap.StepUpdateSession:    bootstrap.OutcomeSuccess,
	}, outcomes(res.Steps))
	assert.Equal(t, outcomes(res.Steps), f.observed.steps)
}

func TestSetup_PasosEnOrden(t *testing.T) {
	f := newFixture(t, loggedIn())

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		names = append(names, s.Step)
	}
	assert.Equal(t, []string{
		bootstrap.StepCreateCompany,
		bootstrap.StepCreateMainBranch,
		bootstrap.StepAssignAdminRole,
		bootstrap.StepUploadLogo,
		bootstrap.StepUpdateSession,
	}, names)
}

func TestSetup_ConLogo(t *testing.T) {
	f := newFixture(t, loggedIn())
	logo := &dto.LogoFile{Name: "Logo.PNG", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	res, err := f.uc.Setup(context.Background(), f.store, acme(), logo)
	require.NoError(t, err)

	companyID := res.Company.ID
	require.True(t, strings.HasPrefix(res.LogoURL, companyID+"/"), res.LogoURL)
	assert.True(t, strings.HasSuffix(res.LogoURL, ".png"))

	obj, ok := f.platform.Object(bootstrap.DefaultLogoBucket, res.LogoURL)
	require.True(t, ok, "el logo se sube al bucket company-logos")
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, res.LogoURL, f.platform.Companies()[0].LogoURL)
}

func TestSetup_DefaultsDelFormulario(t *testing.T) {
	f := newFixture(t, loggedIn())

	_, err := f.uc.Setup(context.Background(), f.store, dto.CompanySetupRequest{CompanyName: "Acme"}, nil)
	require.NoError(t, err)

	c := f.platform.Companies()[0]
	assert.Equal(t, "NGN", c.Currency)
	assert.Equal(t, "Africa/Lagos", c.Timezone)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.FiscalYearStart)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), c.AccountingStart)
}

// ----- rechazos antes de escribir -----

func TestSetup_SinCuenta_NoAutenticadoSinEscrituras(t *testing.T) {
	f := newFixture(t, entity.Session{})

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.NotNil(t, res)
	assert.Equal(t, dto.RouteLogin, res.Redirect)
	assert.Equal(t, 0, f.platform.Writes())
}

func TestSetup_Invalido_NoLlegaALosPasos(t *testing.T) {
	f := newFixture(t, loggedIn())
	req := acme()
	req.FiscalYearStart = "2024-07-01"

	_, err := f.uc.Setup(context.Background(), f.store, req, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.platform.Writes())
	assert.Empty(t, f.observed.steps)
}

// ----- fallos terminales -----

func TestSetup_FallaEmpresa_NadaMasSeCrea(t *testing.T) {
	f := newFixture(t, loggedIn())
	f.platform.Fail(memory.OpCreateCompany, errRemoto)
	before := f.store.Get(context.Background())

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.ErrorIs(t, err, domain.ErrCompanyCreation)

	assert.Equal(t, 0, f.platform.Calls(memory.OpCreateBranch))
	assert.Empty(t, f.platform.Branches())
	assert.Empty(t, f.platform.Assignments())
	assert.Equal(t, 0, f.platform.Calls(memory.OpAssignAdmin))
	assert.Equal(t, before, session.NewStore(f.kv, "", nil).Get(context.Background()))
	assert.Equal(t, before, res.Session)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, bootstrap.OutcomeTerminalFailure, res.Steps[0].Outcome)
	assert.Contains(t, f.logs.String(), `"step":"create-company"`)
}

func TestSetup_FallaSucursal_EmpresaNoSeRevierte(t *testing.T) {
	f := newFixture(t, loggedIn())
	f.platform.Fail(memory.OpCreateBranch, errRemoto)
	before := f.store.Get(context.Background())

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.ErrorIs(t, err, domain.ErrBranchCreation)
	assert.Equal(t, "no se pudo crear la sucursal principal, intente de nuevo", domain.ErrBranchCreation.Error())

	assert.Len(t, f.platform.Companies(), 1, "la empresa queda creada")
	assert.Empty(t, f.platform.Assignments())
	assert.Equal(t, before, session.NewStore(f.kv, "", nil).Get(context.Background()))
	assert.NotNil(t, res.Company)
	assert.Nil(t, res.Branch)
	assert.Empty(t, res.Redirect)
}

// ----- fallos registrados -----

func TestSetup_FallaProcedimiento_FallbackUnaVez(t *testing.T) {
	f := newFixture(t, loggedIn())
	f.platform.Fail(memory.OpAssignAdmin, errRemoto)

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.platform.Calls(memory.OpAssignAdmin))
	assert.Equal(t, 1, f.platform.Calls(memory.OpCreateAssignment))
	require.Len(t, f.platform.Assignments(), 1)
	assert.True(t, res.RoleAssigned)
	assert.Equal(t, entity.RoleCompanyAdmin, res.Session.Role)
}

func TestSetup_FallanProcedimientoYFallback_SesionActualizada(t *testing.T) {
	f := newFixture(t, loggedIn())
	f.platform.Fail(memory.OpAssignAdmin, errRemoto)
	f.platform.Fail(memory.OpCreateAssignment, errRemoto)

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.NoError(t, err, "el alta continúa sin rol")

	assert.Equal(t, 1, f.platform.Calls(memory.OpCreateAssignment), "exactamente un intento de fallback")
	assert.Empty(t, f.platform.Assignments())
	assert.False(t, res.RoleAssigned)
	assert.Equal(t, bootstrap.OutcomeLoggedFailure, outcomes(res.Steps)[bootstrap.StepAssignAdminRole])

	got := session.NewStore(f.kv, "", nil).Get(context.Background())
	assert.Equal(t, res.Company.ID, got.CompanyID)
	assert.Equal(t, entity.RoleCompanyAdmin, got.Role)
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, dto.RouteDashboard, res.Redirect)

	line := findLog(t, f.logs, bootstrap.StepAssignAdminRole, "error")
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, res.Company.ID, line["company_id"])
}

func TestSetup_FallaLogo_NoCambiaResultado(t *testing.T) {
	for _, op := range []memory.Op{memory.OpUpload, memory.OpUpdateLogo} {
		t.Run(string(op), func(t *testing.T) {
			f := newFixture(t, loggedIn())
			f.platform.Fail(op, errRemoto)
			logo := &dto.LogoFile{Name: "logo.jpg", ContentType: "image/jpeg", Data: []byte{1, 2}}

			res, err := f.uc.Setup(context.Background(), f.store, acme(), logo)
			require.NoError(t, err)
			assert.Empty(t, res.LogoURL)
			assert.Empty(t, f.platform.Companies()[0].LogoURL)
			assert.Equal(t, bootstrap.OutcomeLoggedFailure, outcomes(res.Steps)[bootstrap.StepUploadLogo])
			assert.Equal(t, dto.RouteDashboard, res.Redirect)
		})
	}
}

func TestSetup_FallaPersistenciaSesion_SoloSeRegistra(t *testing.T) {
	f := newFixture(t, loggedIn())
	// fuerza la carga de la sesión antes de romper el store
	require.Equal(t, "user-1", f.store.Get(context.Background()).UserID)
	f.kv.Err = errRemoto

	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.NoError(t, err)
	assert.Equal(t, bootstrap.OutcomeLoggedFailure, outcomes(res.Steps)[bootstrap.StepUpdateSession])
	assert.Equal(t, res.Company.ID, f.store.Get(context.Background()).CompanyID)
}

// ----- concurrencia -----

type blockingCompanies struct {
	*memory.CompanyRepo
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCompanies) Create(ctx context.Context, c *entity.Company) (*entity.Company, error) {
	close(b.entered)
	<-b.release
	return b.CompanyRepo.Create(ctx, c)
}

func TestSetup_AltaEnCurso_SegundoIntentoRechazado(t *testing.T) {
	p := memory.NewPlatform()
	blocking := &blockingCompanies{CompanyRepo: p.CompanyRepo(), entered: make(chan struct{}), release: make(chan struct{})}
	uc := bootstrap.NewUseCase(bootstrap.Deps{
		Companies:   blocking,
		Branches:    p.BranchRepo(),
		Roles:       p.RoleAssignmentRepo(),
		Provisioner: p.Provisioner(),
		Storage:     p.Storage(),
		Now:         fixedNow,
	})
	ctx := context.Background()
	store := session.NewStore(kv.NewMemory(), "", nil)
	require.NoError(t, store.Set(ctx, loggedIn()))

	done := make(chan error, 1)
	go func() {
		_, err := uc.Setup(ctx, store, acme(), nil)
		done <- err
	}()
	<-blocking.entered

	_, err := uc.Setup(ctx, store, acme(), nil)
	assert.ErrorIs(t, err, domain.ErrBootstrapInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	assert.Len(t, p.Companies(), 1)
}

// ----- escenario Acme -----

func TestSetup_EscenarioAcme(t *testing.T) {
	anon := newFixture(t, entity.Session{})
	_, err := anon.uc.Setup(context.Background(), anon.store, acme(), nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, 0, anon.platform.Writes())

	f := newFixture(t, loggedIn())
	res, err := f.uc.Setup(context.Background(), f.store, acme(), nil)
	require.NoError(t, err)
	got := f.store.Get(context.Background())
	assert.Equal(t, res.Company.ID, got.CompanyID)
	assert.Equal(t, "company_admin", got.Role.String())
	assert.True(t, got.IsAuthenticated)
}

func findLog(t *testing.T, buf *bytes.Buffer, step, level string) map[string]interface{} {
	t.Helper()
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]interface{}
		if json.Unmarshal([]byte(raw), &line) != nil {
			continue
		}
		if line["step"] == step && line["level"] == level {
			return line
		}
	}
	t.Fatalf("no hay log %s para el paso %s en:\n%s", level, step, buf.String())
	return nil
}

package bootstrap

import (
	"context"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// DefaultLogoBucket bucket de logos de empresa.
const DefaultLogoBucket = "company-logos"

// Deps puertos y colaboradores del alta.
type Deps struct {
	Companies   repository.CompanyRepository
	Branches    repository.BranchRepository
	Roles       repository.RoleAssignmentRepository
	Provisioner repository.RoleProvisioner
	Storage     repository.ObjectStorage
	Validator   *validation.Validator
	LogoBucket  string
	Logger      *logger.Logger
	Observer    StepObserver
	Now         func() time.Time // nil = time.Now
}

// Result resultado del alta.
type Result struct {
	Company      *entity.Company
	Branch       *entity.Branch
	Session      entity.Session
	RoleAssigned bool
	LogoURL      string
	Steps        []StepResult
	Redirect     string
}

// UseCase alta de empresa para una cuenta autenticada.
type UseCase struct {
	companies   repository.CompanyRepository
	branches    repository.BranchRepository
	roles       repository.RoleAssignmentRepository
	provisioner repository.RoleProvisioner
	storage     repository.ObjectStorage
	validator   *validation.Validator
	bucket      string
	log         *logger.Logger
	now         func() time.Time
	newName     func() string

	runner *Runner
	guard  *inflight
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	uc := &UseCase{
		companies:   d.Companies,
		branches:    d.Branches,
		roles:       d.Roles,
		provisioner: d.Provisioner,
		storage:     d.Storage,
		validator:   d.Validator,
		bucket:      d.LogoBucket,
		log:         d.Logger,
		now:         d.Now,
		newName:     func() string { return ksuid.New().String() },
		guard:       newInflight(),
	}
	if uc.bucket == "" {
		uc.bucket = DefaultLogoBucket
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.validator == nil {
		uc.validator = validation.New(uc.now)
	}
	uc.runner = newRunner(uc.steps(), uc.log, d.Observer)
	return uc
}

// Setup valida el formulario y ejecuta el alta para el usuario de la sesión.
//
// Sin usuario en la sesión devuelve domain.ErrUnauthenticated (Redirect /login) sin escribir
// nada en la plataforma. Los fallos de empresa o sucursal devuelven domain.ErrCompanyCreation
// o domain.ErrBranchCreation junto con el resultado parcial; los demás pasos solo se registran.
func (uc *UseCase) Setup(ctx context.Context, store *session.Store, req dto.CompanySetupRequest, logo *dto.LogoFile) (*Result, error) {
	req.ApplyDefaults(uc.now())
	input, err := uc.validator.CompanySetup(req)
	if err != nil {
		return nil, err
	}
	if err := uc.validator.Logo(logo); err != nil {
		return nil, err
	}

	current := store.Get(ctx)
	if current.UserID == "" {
		return &Result{Redirect: dto.RouteLogin}, domain.ErrUnauthenticated
	}
	if !uc.guard.acquire(current.UserID) {
		return nil, domain.ErrBootstrapInProgress
	}
	defer uc.guard.release(current.UserID)
	ctx = repository.WithAccessToken(ctx, current.AccessToken)

	st := &state{userID: current.UserID, input: input, logo: logo, store: store}
	steps, err := uc.runner.Run(ctx, st)
	res := &Result{
		Company:      st.company,
		Branch:       st.branch,
		RoleAssigned: st.roleAssigned,
		LogoURL:      st.logoURL,
		Steps:        steps,
	}
	if err != nil {
		res.Session = current
		return res, err
	}
	res.Session = st.session
	res.Redirect = dto.RouteDashboard

	uc.log.Info().
		Str("user_id", current.UserID).
		Str("company_id", st.company.ID).
		Bool("role_assigned", st.roleAssigned).
		Msg("empresa creada")
	return res, nil
}

package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

// CompanyHandler alta de empresa y consulta de la empresa actual.
type CompanyHandler struct {
	setup     *bootstrap.UseCase
	auth      *auth.UseCase
	companies repository.CompanyRepository
	branches  repository.BranchRepository
	roles     repository.RoleAssignmentRepository
}

// NewCompanyHandler construye el handler inyectando los casos de uso y repositorios.
func NewCompanyHandler(setup *bootstrap.UseCase, authUC *auth.UseCase, companies repository.CompanyRepository,
	branches repository.BranchRepository, roles repository.RoleAssignmentRepository) *CompanyHandler {
	return &CompanyHandler{setup: setup, auth: authUC, companies: companies, branches: branches, roles: roles}
}

// Setup godoc
// @Summary      Alta de empresa
// @Description  Crea la empresa, su sucursal principal y asigna company_admin. Acepta JSON o multipart con el archivo "logo".
// @Tags         companies
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CompanySetupRequest  true  "datos de la empresa"
// @Param        logo  formData  file                     false "logo (imagen, máx. 2 MiB)"
// @Success      201   {object}  dto.CompanySetupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/companies/setup [post]
func (h *CompanyHandler) Setup(c *fiber.Ctx) error {
	var in dto.CompanySetupRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	logo, err := readLogo(c)
	if err != nil {
		return badBody(c)
	}

	res, err := h.setup.Setup(c.UserContext(), GetSessionStore(c), in, logo)
	if err != nil {
		return writeError(c, err)
	}
	token, err := h.auth.IssueToken(GetSessionID(c), res.Session)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSetupResponse(res, token))
}

// Current godoc
// @Summary      Empresa actual
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CurrentCompanyResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/companies/current [get]
func (h *CompanyHandler) Current(c *fiber.Ctx) error {
	ctx := c.UserContext()
	companyID := GetCompanyID(c)
	if companyID == "" {
		a, err := h.roles.FindByUser(ctx, GetUserID(c))
		if err != nil {
			return writeError(c, err)
		}
		if a == nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code: "COMPANY_REQUIRED", Message: "cree su empresa para continuar", Redirect: dto.RouteCompanySetup,
			})
		}
		companyID = a.CompanyID
	}
	company, err := h.companies.GetByID(ctx, companyID)
	if err != nil {
		return writeError(c, err)
	}
	branches, err := h.branches.ListByCompany(ctx, companyID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.CurrentCompanyResponse{Company: toCompanyResponse(company), Branches: make([]dto.BranchResponse, 0, len(branches))}
	for _, b := range branches {
		out.Branches = append(out.Branches, toBranchResponse(b))
	}
	return c.JSON(out)
}

// readLogo lee el archivo "logo" de un multipart; nil si no viene.
func readLogo(c *fiber.Ctx) (*dto.LogoFile, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File["logo"]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// Un byte de más basta para que la validación detecte el exceso.
	data, err := io.ReadAll(io.LimitReader(f, validation.MaxLogoBytes+1))
	if err != nil {
		return nil, err
	}
	return &dto.LogoFile{Name: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data}, nil
}

func toCompanyResponse(c *entity.Company) dto.CompanyResponse {
	if c == nil {
		return dto.CompanyResponse{}
	}
	return dto.CompanyResponse{
		ID:              c.ID,
		Name:            c.Name,
		Currency:        c.Currency,
		Timezone:        c.Timezone,
		FiscalYearStart: c.FiscalYearStart.Format(dto.DateLayout),
		AccountingStart: c.AccountingStart.Format(dto.DateLayout),
		LogoURL:         c.LogoURL,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
	}
}

func toBranchResponse(b *entity.Branch) dto.BranchResponse {
	if b == nil {
		return dto.BranchResponse{}
	}
	return dto.BranchResponse{ID: b.ID, CompanyID: b.CompanyID, Name: b.Name, IsMainBranch: b.IsMainBranch}
}

func toSetupResponse(res *bootstrap.Result, token string) dto.CompanySetupResponse {
	return dto.CompanySetupResponse{
		Token:    token,
		Company:  toCompanyResponse(res.Company),
		Branch:   toBranchResponse(res.Branch),
		Session:  auth.ToSessionResponse(res.Session),
		Redirect: res.Redirect,
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
)

// Nombres de los pasos, en orden de ejecución.
const (
	StepCreateCompany    = "create-company"
	StepCreateMainBranch = "create-main-branch"
	StepAssignAdminRole  = "assign-admin-role"
	StepUploadLogo       = "upload-logo"
	StepUpdateSession    = "update-session"
)

// state datos que comparten los pasos de una ejecución.
type state struct {
	userID string
	input  *validation.CompanyInput
	logo   *dto.LogoFile
	store  *session.Store

	company      *entity.Company
	branch       *entity.Branch
	roleAssigned bool
	logoURL      string
	session      entity.Session
}

func (st *state) companyID() string {
	if st.company == nil {
		return ""
	}
	return st.company.ID
}

func (uc *UseCase) steps() []step {
	return []step{
		{name: StepCreateCompany, terminal: true, run: uc.createCompany},
		{name: StepCreateMainBranch, terminal: true, run: uc.createMainBranch},
		{name: StepAssignAdminRole, run: uc.assignAdminRole},
		{name: StepUploadLogo, run: uc.uploadLogo},
		{name: StepUpdateSession, run: uc.updateSession},
	}
}

func (uc *UseCase) createCompany(ctx context.Context, st *state) error {
	created, err := uc.companies.Create(ctx, &entity.Company{
		Name:            st.input.Name,
		Currency:        st.input.Currency,
		Timezone:        st.input.Timezone,
		FiscalYearStart: st.input.FiscalYearStart,
		AccountingStart: st.input.AccountingStart,
		CreatedBy:       st.userID,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCompanyCreation, err)
	}
	if created == nil || created.ID == "" {
		return fmt.Errorf("%w: el store no devolvió la empresa creada", domain.ErrCompanyCreation)
	}
	st.company = created
	return nil
}

// createMainBranch no deshace la empresa si falla.
func (uc *UseCase) createMainBranch(ctx context.Context, st *state) error {
	created, err := uc.branches.Create(ctx, &entity.Branch{
		CompanyID:    st.company.ID,
		Name:         entity.MainBranchName,
		IsMainBranch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBranchCreation, err)
	}
	if created == nil {
		return fmt.Errorf("%w: el store no devolvió la sucursal creada", domain.ErrBranchCreation)
	}
	st.branch = created
	return nil
}

// assignAdminRole usa el procedimiento privilegiado y, si falla, intenta una sola vez
// la inserción directa.
func (uc *UseCase) assignAdminRole(ctx context.Context, st *state) error {
	rpcErr := uc.provisioner.AssignCompanyAdmin(ctx, st.userID, st.company.ID)
	if rpcErr == nil {
		st.roleAssigned = true
		return nil
	}
	uc.log.Warn().Err(rpcErr).
		Str("step", StepAssignAdminRole).
		Str("user_id", st.userID).
		Str("company_id", st.company.ID).
		Msg("assign_company_admin_role falló, se intenta inserción directa")

	err := uc.roles.Create(ctx, &entity.RoleAssignment{
		UserID:    st.userID,
		CompanyID: st.company.ID,
		Role:      entity.RoleCompanyAdmin,
	})
	if err != nil {
		return fmt.Errorf("asignar company_admin: rpc: %v; inserción directa: %w", rpcErr, err)
	}
	st.roleAssigned = true
	return nil
}

// uploadLogo sube el logo a <companyId>/<random>.<ext> y guarda esa ruta en la empresa.
func (uc *UseCase) uploadLogo(ctx context.Context, st *state) error {
	if st.logo == nil {
		return errSkipped
	}
	path := st.company.ID + "/" + uc.newName() + logoExt(st.logo)
	if err := uc.storage.Upload(ctx, uc.bucket, path, st.logo.ContentType, st.logo.Data); err != nil {
		return fmt.Errorf("subir logo: %w", err)
	}
	if err := uc.companies.UpdateLogo(ctx, st.company.ID, path); err != nil {
		return fmt.Errorf("guardar logo_url: %w", err)
	}
	st.logoURL = path
	st.company.LogoURL = path
	return nil
}

// updateSession apunta la sesión a la empresa nueva con rol company_admin. Conserva
// usuario, sucursal y token aunque la asignación de rol haya fallado.
func (uc *UseCase) updateSession(ctx context.Context, st *state) error {
	next := st.store.Get(ctx)
	next.CompanyID = st.company.ID
	next.Role = entity.RoleCompanyAdmin
	next.IsAuthenticated = true
	st.session = next
	if err := st.store.Set(ctx, next); err != nil {
		return fmt.Errorf("persistir sesión: %w", err)
	}
	return nil
}

// logoExt extensión del archivo (con punto); si el nombre no la trae se deduce del content type.
func logoExt(f *dto.LogoFile) string {
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" && ext != "." {
		return ext
	}
	switch f.ContentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	if exts, err := mime.ExtensionsByType(f.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

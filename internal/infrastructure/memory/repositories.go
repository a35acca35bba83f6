package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository        = (*CompanyRepo)(nil)
	_ repository.BranchRepository         = (*BranchRepo)(nil)
	_ repository.RoleAssignmentRepository = (*RoleAssignmentRepo)(nil)
	_ repository.RoleProvisioner          = (*Provisioner)(nil)
	_ repository.ObjectStorage            = (*Storage)(nil)
)

type CompanyRepo struct{ p *Platform }

func (p *Platform) CompanyRepo() *CompanyRepo { return &CompanyRepo{p: p} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) (*entity.Company, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpCreateCompany); err != nil {
		return nil, err
	}
	stored := *c
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	r.p.companies[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpGetCompany); err != nil {
		return nil, err
	}
	c, ok := r.p.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *CompanyRepo) UpdateLogo(_ context.Context, companyID, logoURL string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpUpdateLogo); err != nil {
		return err
	}
	c, ok := r.p.companies[companyID]
	if !ok {
		return domain.ErrNotFound
	}
	c.LogoURL = logoURL
	return nil
}

type BranchRepo struct{ p *Platform }

func (p *Platform) BranchRepo() *BranchRepo { return &BranchRepo{p: p} }

func (r *BranchRepo) Create(_ context.Context, b *entity.Branch) (*entity.Branch, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpCreateBranch); err != nil {
		return nil, err
	}
	if _, ok := r.p.companies[b.CompanyID]; !ok {
		return nil, domain.ErrNotFound
	}
	stored := *b
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	r.p.branches = append(r.p.branches, &stored)
	out := stored
	return &out, nil
}

func (r *BranchRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Branch, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpListBranches); err != nil {
		return nil, err
	}
	var out []*entity.Branch
	for _, b := range r.p.branches {
		if b.CompanyID == companyID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type RoleAssignmentRepo struct{ p *Platform }

func (p *Platform) RoleAssignmentRepo() *RoleAssignmentRepo { return &RoleAssignmentRepo{p: p} }

func (r *RoleAssignmentRepo) Create(_ context.Context, a *entity.RoleAssignment) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpCreateAssignment); err != nil {
		return err
	}
	r.p.insertAssignment(a.UserID, a.CompanyID, a.BranchID, a.Role)
	return nil
}

// FindByUser devuelve la asignación más antigua del usuario (orden de inserción) o nil.
func (r *RoleAssignmentRepo) FindByUser(_ context.Context, userID string) (*entity.RoleAssignment, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if err := r.p.enter(OpFindAssignment); err != nil {
		return nil, err
	}
	for _, a := range r.p.assignments {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// Provisioner equivalente en memoria del procedimiento assign_company_admin_role.
type Provisioner struct{ p *Platform }

func (p *Platform) Provisioner() *Provisioner { return &Provisioner{p: p} }

func (pr *Provisioner) AssignCompanyAdmin(_ context.Context, userID, companyID string) error {
	pr.p.mu.Lock()
	defer pr.p.mu.Unlock()
	if err := pr.p.enter(OpAssignAdmin); err != nil {
		return err
	}
	if _, ok := pr.p.companies[companyID]; !ok {
		return domain.ErrNotFound
	}
	for _, a := range pr.p.assignments {
		if a.UserID == userID && a.CompanyID == companyID {
			return nil
		}
	}
	pr.p.insertAssignment(userID, companyID, "", entity.RoleCompanyAdmin)
	return nil
}

func (p *Platform) insertAssignment(userID, companyID, branchID string, role entity.Role) {
	p.assignments = append(p.assignments, &entity.RoleAssignment{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: companyID,
		BranchID:  branchID,
		Role:      role,
	})
}

// Storage almacenamiento de objetos en memoria.
type Storage struct{ p *Platform }

func (p *Platform) Storage() *Storage { return &Storage{p: p} }

func (s *Storage) Upload(_ context.Context, bucket, path, contentType string, data []byte) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.enter(OpUpload); err != nil {
		return err
	}
	s.p.objects[bucket+"/"+path] = Object{
		Bucket:      bucket,
		Path:        path,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
	}
	return nil
}

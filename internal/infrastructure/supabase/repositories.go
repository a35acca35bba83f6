package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository        = (*CompanyRepository)(nil)
	_ repository.BranchRepository         = (*BranchRepository)(nil)
	_ repository.RoleAssignmentRepository = (*RoleAssignmentRepository)(nil)
)

const dateLayout = "2006-01-02"

type companyRow struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	Currency        string     `json:"currency"`
	Timezone        string     `json:"timezone"`
	FiscalYearStart string     `json:"fiscal_year_start"`
	AccountingStart string     `json:"accounting_start"`
	LogoURL         *string    `json:"logo_url,omitempty"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func (r companyRow) toEntity() (*entity.Company, error) {
	fiscal, err := parseDate(r.FiscalYearStart)
	if err != nil {
		return nil, err
	}
	accounting, err := parseDate(r.AccountingStart)
	if err != nil {
		return nil, err
	}
	c := &entity.Company{
		ID:              r.ID,
		Name:            r.Name,
		Currency:        r.Currency,
		Timezone:        r.Timezone,
		FiscalYearStart: fiscal,
		AccountingStart: accounting,
		CreatedBy:       r.CreatedBy,
	}
	if r.LogoURL != nil {
		c.LogoURL = *r.LogoURL
	}
	if r.CreatedAt != nil {
		c.CreatedAt = *r.CreatedAt
	}
	return c, nil
}

// parseDate acepta columnas date ("2024-01-01") y timestamptz.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("supabase: fecha inválida %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CompanyRepository tabla companies.
type CompanyRepository struct {
	c *Client
}

func NewCompanyRepository(c *Client) *CompanyRepository {
	return &CompanyRepository{c: c}
}

func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) (*entity.Company, error) {
	row := companyRow{
		Name:            company.Name,
		Currency:        company.Currency,
		Timezone:        company.Timezone,
		FiscalYearStart: company.FiscalYearStart.Format(dateLayout),
		AccountingStart: company.AccountingStart.Format(dateLayout),
		CreatedBy:       company.CreatedBy,
	}
	var out companyRow
	if err := r.c.insert(ctx, "companies", row, &out, false); err != nil {
		return nil, err
	}
	return out.toEntity()
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	resp, err := r.c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/rest/v1/companies",
		query:   url.Values{"select": {"*"}, "id": {eq(id)}},
		headers: map[string]string{"Accept": "application/vnd.pgrst.object+json"},
	})
	if err != nil {
		return nil, err
	}
	var row companyRow
	if err := json.Unmarshal(resp.body, &row); err != nil {
		return nil, fmt.Errorf("supabase: decodificar empresa: %w", err)
	}
	return row.toEntity()
}

func (r *CompanyRepository) UpdateLogo(ctx context.Context, companyID, logoURL string) error {
	_, err := r.c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/companies",
		query:  url.Values{"id": {eq(companyID)}},
		body:   map[string]string{"logo_url": logoURL},
	})
	return err
}

type branchRow struct {
	ID           string     `json:"id,omitempty"`
	CompanyID    string     `json:"company_id"`
	Name         string     `json:"name"`
	IsMainBranch bool       `json:"is_main_branch"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

func (r branchRow) toEntity() *entity.Branch {
	b := &entity.Branch{ID: r.ID, CompanyID: r.CompanyID, Name: r.Name, IsMainBranch: r.IsMainBranch}
	if r.CreatedAt != nil {
		b.CreatedAt = *r.CreatedAt
	}
	return b
}

// BranchRepository tabla branches.
type BranchRepository struct {
	c *Client
}

func NewBranchRepository(c *Client) *BranchRepository {
	return &BranchRepository{c: c}
}

func (r *BranchRepository) Create(ctx context.Context, b *entity.Branch) (*entity.Branch, error) {
	var out branchRow
	row := branchRow{CompanyID: b.CompanyID, Name: b.Name, IsMainBranch: b.IsMainBranch}
	if err := r.c.insert(ctx, "branches", row, &out, false); err != nil {
		return nil, err
	}
	return out.toEntity(), nil
}

func (r *BranchRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error) {
	resp, err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/branches",
		query: url.Values{
			"select":     {"*"},
			"company_id": {eq(companyID)},
			"order":      {"is_main_branch.desc,created_at.asc"},
		},
	})
	if err != nil {
		return nil, err
	}
	var rows []branchRow
	if err := json.Unmarshal(resp.body, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decodificar sucursales: %w", err)
	}
	out := make([]*entity.Branch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

type assignmentRow struct {
	ID        string      `json:"id,omitempty"`
	UserID    string      `json:"user_id"`
	CompanyID string      `json:"company_id"`
	BranchID  *string     `json:"branch_id,omitempty"`
	Role      entity.Role `json:"role"`
}

func newAssignmentRow(a *entity.RoleAssignment) assignmentRow {
	row := assignmentRow{UserID: a.UserID, CompanyID: a.CompanyID, Role: a.Role}
	if a.BranchID != "" {
		row.BranchID = &a.BranchID
	}
	return row
}

// RoleAssignmentRepository tabla user_role_assignments. Create queda sujeto a RLS.
type RoleAssignmentRepository struct {
	c *Client
}

func NewRoleAssignmentRepository(c *Client) *RoleAssignmentRepository {
	return &RoleAssignmentRepository{c: c}
}

func (r *RoleAssignmentRepository) Create(ctx context.Context, a *entity.RoleAssignment) error {
	return r.c.insert(ctx, "user_role_assignments", newAssignmentRow(a), nil, false)
}

// FindByUser devuelve la asignación más antigua del usuario o nil si no tiene.
func (r *RoleAssignmentRepository) FindByUser(ctx context.Context, userID string) (*entity.RoleAssignment, error) {
	resp, err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/user_role_assignments",
		query: url.Values{
			"select":  {"id,user_id,company_id,branch_id,role"},
			"user_id": {eq(userID)},
			"order":   {"created_at.asc"},
			"limit":   {"1"},
		},
	})
	if err != nil {
		return nil, err
	}
	var rows []assignmentRow
	if err := json.Unmarshal(resp.body, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decodificar asignaciones: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	a := &entity.RoleAssignment{ID: row.ID, UserID: row.UserID, CompanyID: row.CompanyID, Role: row.Role}
	if row.BranchID != nil {
		a.BranchID = *row.BranchID
	}
	return a, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

// Asegura que los repos implementan los puertos.
var (
	_ repository.CompanyRepository = (*CompanyRepo)(nil)
	_ repository.BranchRepository  = (*BranchRepo)(nil)
)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	db dbtx
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{db: pool}
}

const companyColumns = `id, name, currency, timezone, fiscal_year_start, accounting_start,
	COALESCE(logo_url, ''), created_by, created_at`

// Create persiste una nueva empresa; el id y created_at los asigna la base.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) (*entity.Company, error) {
	query := `
		INSERT INTO companies (name, currency, timezone, fiscal_year_start, accounting_start, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + companyColumns
	c, err := scanCompany(r.db.QueryRow(ctx, query,
		company.Name, company.Currency, company.Timezone,
		dateOnly(company.FiscalYearStart), dateOnly(company.AccountingStart),
		company.CreatedBy,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("insert company: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

// GetByID obtiene una empresa por ID. domain.ErrNotFound si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// UpdateLogo guarda la ruta del logo dentro del bucket.
func (r *CompanyRepo) UpdateLogo(ctx context.Context, companyID, logoURL string) error {
	tag, err := r.db.Exec(ctx, `UPDATE companies SET logo_url = $2 WHERE id = $1`, companyID, logoURL)
	if err != nil {
		return fmt.Errorf("update company logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	if err := row.Scan(
		&c.ID, &c.Name, &c.Currency, &c.Timezone, &c.FiscalYearStart, &c.AccountingStart,
		&c.LogoURL, &c.CreatedBy, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// BranchRepo implementación del puerto BranchRepository sobre PostgreSQL.
type BranchRepo struct {
	db dbtx
}

// NewBranchRepository construye el adaptador de persistencia para sucursales.
func NewBranchRepository(pool *pgxpool.Pool) *BranchRepo {
	return &BranchRepo{db: pool}
}

// Create persiste una sucursal. La base admite una sola sucursal principal por empresa.
func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) (*entity.Branch, error) {
	query := `
		INSERT INTO branches (company_id, name, is_main_branch)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, name, is_main_branch, created_at`
	var out entity.Branch
	err := r.db.QueryRow(ctx, query, b.CompanyID, b.Name, b.IsMainBranch).Scan(
		&out.ID, &out.CompanyID, &out.Name, &out.IsMainBranch, &out.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, fmt.Errorf("insert branch: %w", domain.ErrDuplicate)
		case isForeignKeyViolation(err):
			return nil, fmt.Errorf("insert branch: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("insert branch: %w", err)
	}
	return &out, nil
}

// ListByCompany lista las sucursales con la principal primero.
func (r *BranchRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, company_id, name, is_main_branch, created_at
		FROM branches WHERE company_id = $1
		ORDER BY is_main_branch DESC, created_at ASC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var list []*entity.Branch
	for rows.Next() {
		var b entity.Branch
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Name, &b.IsMainBranch, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

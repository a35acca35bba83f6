package repository

import (
	"context"

	"github.com/jhoicas/Wasper-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure (supabase, postgres, memory).
type CompanyRepository interface {
	// Create inserta la empresa y devuelve la fila almacenada (con el ID asignado por el store).
	Create(ctx context.Context, company *entity.Company) (*entity.Company, error)
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	UpdateLogo(ctx context.Context, companyID, logoURL string) error
}

// BranchRepository puerto de persistencia para sucursales.
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) (*entity.Branch, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error)
}

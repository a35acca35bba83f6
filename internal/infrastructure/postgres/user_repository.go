package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var (
	_ repository.IdentityProvider         = (*Identity)(nil)
	_ repository.RoleAssignmentRepository = (*RoleAssignmentRepo)(nil)
	_ repository.RoleProvisioner          = (*Provisioner)(nil)
)

// DefaultSessionTTL vigencia de los tokens emitidos por Identity.
const DefaultSessionTTL = 24 * time.Hour

// Identity proveedor de identidad propio: cuentas con bcrypt y tokens opacos en auth_sessions.
type Identity struct {
	pool *pgxpool.Pool
	tx   *TxRunner
	ttl  time.Duration
}

// NewIdentity construye el proveedor. ttl <= 0 usa DefaultSessionTTL.
func NewIdentity(pool *pgxpool.Pool, ttl time.Duration) *Identity {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Identity{pool: pool, tx: NewTxRunner(pool), ttl: ttl}
}

// SignUp crea la cuenta y su perfil en una transacción.
func (i *Identity) SignUp(ctx context.Context, email, password string, profile entity.Profile) (string, error) {
	if len(password) < 6 {
		return "", domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	var id string
	err = i.tx.Run(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO accounts (email, password_hash) VALUES ($1, $2) RETURNING id`,
			normalizeEmail(email), string(hash),
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailAlreadyExists
			}
			return fmt.Errorf("insert account: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO profiles (id, full_name) VALUES ($1, $2)`, id, profile.FullName); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SignInWithPassword verifica email/password y emite un token opaco.
func (i *Identity) SignInWithPassword(ctx context.Context, email, password string) (*entity.AuthSession, error) {
	var id, hash string
	err := i.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM accounts WHERE email = $1`, normalizeEmail(email),
	).Scan(&id, &hash)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s := &entity.AuthSession{
		AccountID:   id,
		Email:       normalizeEmail(email),
		AccessToken: uuid.New().String(),
		ExpiresAt:   time.Now().Add(i.ttl),
	}
	if _, err := i.pool.Exec(ctx,
		`INSERT INTO auth_sessions (token, account_id, expires_at) VALUES ($1, $2, $3)`,
		s.AccessToken, s.AccountID, s.ExpiresAt,
	); err != nil {
		return nil, fmt.Errorf("insert auth session: %w", err)
	}
	return s, nil
}

// GetSession devuelve nil, nil si el token no existe o venció.
func (i *Identity) GetSession(ctx context.Context, accessToken string) (*entity.AuthSession, error) {
	s := entity.AuthSession{AccessToken: accessToken}
	err := i.pool.QueryRow(ctx, `
		SELECT s.account_id, a.email, s.expires_at
		FROM auth_sessions s JOIN accounts a ON a.id = s.account_id
		WHERE s.token = $1 AND s.expires_at > now()`, accessToken,
	).Scan(&s.AccountID, &s.Email, &s.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth session: %w", err)
	}
	return &s, nil
}

func (i *Identity) SignOut(ctx context.Context, accessToken string) error {
	if _, err := i.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE token = $1`, accessToken); err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleAssignmentRepo tabla user_role_assignments.
type RoleAssignmentRepo struct {
	db dbtx
}

func NewRoleAssignmentRepository(pool *pgxpool.Pool) *RoleAssignmentRepo {
	return &RoleAssignmentRepo{db: pool}
}

func (r *RoleAssignmentRepo) Create(ctx context.Context, a *entity.RoleAssignment) error {
	var branch *string
	if a.BranchID != "" {
		branch = &a.BranchID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_role_assignments (user_id, company_id, branch_id, role)
		VALUES ($1, $2, $3, $4)`,
		a.UserID, a.CompanyID, branch, a.Role.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert role assignment: %w", err)
	}
	return nil
}

// FindByUser devuelve la asignación más antigua del usuario o nil si no tiene.
func (r *RoleAssignmentRepo) FindByUser(ctx context.Context, userID string) (*entity.RoleAssignment, error) {
	var a entity.RoleAssignment
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, company_id, COALESCE(branch_id::text, ''), role
		FROM user_role_assignments WHERE user_id = $1
		ORDER BY created_at ASC LIMIT 1`, userID,
	).Scan(&a.ID, &a.UserID, &a.CompanyID, &a.BranchID, &role)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role assignment: %w", err)
	}
	a.Role, _ = entity.ParseRole(role)
	return &a, nil
}

// Provisioner invoca la función SECURITY DEFINER assign_company_admin_role.
type Provisioner struct {
	db dbtx
}

func NewProvisioner(pool *pgxpool.Pool) *Provisioner {
	return &Provisioner{db: pool}
}

func (p *Provisioner) AssignCompanyAdmin(ctx context.Context, userID, companyID string) error {
	if _, err := p.db.Exec(ctx, `SELECT assign_company_admin_role($1::uuid, $2::uuid)`, userID, companyID); err != nil {
		return fmt.Errorf("assign_company_admin_role: %w", err)
	}
	return nil
}

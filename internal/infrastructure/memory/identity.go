package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var _ repository.IdentityProvider = (*Identity)(nil)

// Identity proveedor de identidad en memoria.
type Identity struct{ p *Platform }

func (p *Platform) Identity() *Identity { return &Identity{p: p} }

func (i *Identity) SignUp(_ context.Context, email, password string, profile entity.Profile) (string, error) {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	if err := i.p.enter(OpSignUp); err != nil {
		return "", err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := i.p.accounts[email]; exists {
		return "", domain.ErrEmailAlreadyExists
	}
	if len(password) < 6 {
		return "", domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	acc := &entity.Account{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     profile.FullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	i.p.accounts[email] = acc
	return acc.ID, nil
}

func (i *Identity) SignInWithPassword(_ context.Context, email, password string) (*entity.AuthSession, error) {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	if err := i.p.enter(OpSignIn); err != nil {
		return nil, err
	}
	acc, ok := i.p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	token := uuid.New().String()
	i.p.tokens[token] = acc.ID
	return &entity.AuthSession{AccountID: acc.ID, Email: acc.Email, AccessToken: token}, nil
}

func (i *Identity) GetSession(_ context.Context, accessToken string) (*entity.AuthSession, error) {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	if err := i.p.enter(OpGetSession); err != nil {
		return nil, err
	}
	id, ok := i.p.tokens[accessToken]
	if !ok {
		return nil, nil
	}
	for _, acc := range i.p.accounts {
		if acc.ID == id {
			return &entity.AuthSession{AccountID: id, Email: acc.Email, AccessToken: accessToken}, nil
		}
	}
	return nil, nil
}

func (i *Identity) SignOut(_ context.Context, accessToken string) error {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	if err := i.p.enter(OpSignOut); err != nil {
		return err
	}
	delete(i.p.tokens, accessToken)
	return nil
}

package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var _ repository.IdentityProvider = (*Identity)(nil)

// Identity proveedor de identidad (GoTrue, /auth/v1).
type Identity struct {
	c *Client
}

func NewIdentity(c *Client) *Identity {
	return &Identity{c: c}
}

// SignUp registra la cuenta con full_name como metadata del usuario.
func (i *Identity) SignUp(ctx context.Context, email, password string, profile entity.Profile) (string, error) {
	resp, err := i.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     map[string]string{"full_name": profile.FullName},
		},
	})
	if err != nil {
		return "", signUpError(err)
	}
	// con confirmación de email la respuesta es el usuario; sin ella, una sesión con "user"
	id := gjson.GetBytes(resp.body, "user.id").String()
	if id == "" {
		id = gjson.GetBytes(resp.body, "id").String()
	}
	if id == "" {
		return "", fmt.Errorf("supabase: signup sin id de usuario")
	}
	return id, nil
}

func (i *Identity) SignInWithPassword(ctx context.Context, email, password string) (*entity.AuthSession, error) {
	resp, err := i.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Code == "invalid_grant" || apiErr.Code == "invalid_credentials") {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return nil, err
	}
	res := gjson.GetManyBytes(resp.body, "access_token", "expires_in", "user.id", "user.email")
	if res[0].String() == "" || res[2].String() == "" {
		return nil, fmt.Errorf("supabase: respuesta de token incompleta")
	}
	s := &entity.AuthSession{
		AccountID:   res[2].String(),
		Email:       res[3].String(),
		AccessToken: res[0].String(),
	}
	if secs := res[1].Int(); secs > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return s, nil
}

// GetSession consulta /auth/v1/user; un token vencido o revocado devuelve nil, nil.
func (i *Identity) GetSession(ctx context.Context, accessToken string) (*entity.AuthSession, error) {
	resp, err := i.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	id := gjson.GetBytes(resp.body, "id").String()
	if id == "" {
		return nil, nil
	}
	return &entity.AuthSession{
		AccountID:   id,
		Email:       gjson.GetBytes(resp.body, "email").String(),
		AccessToken: accessToken,
	}, nil
}

func (i *Identity) SignOut(ctx context.Context, accessToken string) error {
	_, err := i.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	})
	return err
}

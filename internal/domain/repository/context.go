package repository

import "context"

type accessTokenKey struct{}

// WithAccessToken adjunta el token del usuario al contexto. Los adaptadores de la plataforma
// lo usan para que las llamadas queden sujetas a las políticas RLS de ese usuario.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken token del usuario adjunto al contexto ("" si no hay).
func AccessToken(ctx context.Context) string {
	s, _ := ctx.Value(accessTokenKey{}).(string)
	return s
}

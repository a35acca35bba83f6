package postgres

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Wasper-api/pkg/config"
)

type fakeResolver struct {
	ips []net.IP
	err error
}

func (f fakeResolver) LookupIP(context.Context, string, string) ([]net.IP, error) {
	return f.ips, f.err
}

func TestPoolConfigFrom_TamañoDesdeConfig(t *testing.T) {
	pc, err := poolConfigFrom(config.DBConfig{
		DatabaseURL: "postgres://app:secret@db:5432/wasper?sslmode=disable",
		MaxConns:    8,
		MinConns:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "wasper", pc.ConnConfig.Database)
}

func TestPoolConfigFrom_MinMayorQueMaxSeIgnora(t *testing.T) {
	pc, err := poolConfigFrom(config.DBConfig{Host: "db", Port: 5432, User: "app", DBName: "wasper", SSLMode: "disable", MaxConns: 2, MinConns: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(2), pc.MaxConns)
	assert.Equal(t, int32(0), pc.MinConns)
}

func TestPoolConfigFrom_URLInvalida(t *testing.T) {
	_, err := poolConfigFrom(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestLookupIPv4(t *testing.T) {
	ctx := context.Background()

	ip, err := lookupIPv4(ctx, fakeResolver{}, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip, "una IPv4 literal no consulta el resolver")

	_, err = lookupIPv4(ctx, fakeResolver{}, "::1")
	assert.Error(t, err)

	ip, err = lookupIPv4(ctx, fakeResolver{ips: []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("192.0.2.10")}}, "db.example.com")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", ip)

	_, err = lookupIPv4(ctx, fakeResolver{err: errors.New("nxdomain")}, "db.example.com")
	assert.Error(t, err)
}

package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	v := viper.New()
	v.Set("APP_BACKEND", "memory")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, BackendMemory, cfg.App.Backend)
	assert.Equal(t, SessionBackendFile, cfg.Session.Backend)
	assert.Equal(t, "company-logos", cfg.Storage.LogoBucket)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_SupabaseSinCredenciales_Error(t *testing.T) {
	v := viper.New()
	v.Set("APP_BACKEND", "supabase")

	_, err := fromViper(v)
	assert.Error(t, err, "supabase sin URL ni anon key debe fallar")
}

func TestFromViper_BackendDesconocido(t *testing.T) {
	v := viper.New()
	v.Set("APP_BACKEND", "mongo")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_EnteroDesdeString(t *testing.T) {
	v := viper.New()
	v.Set("APP_BACKEND", "memory")
	v.Set("HTTP_PORT", "9090")
	v.Set("REDIS_DB", "no-es-numero")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 0, cfg.Redis.DB, "un valor no numérico cae al default")
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "wasper", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/wasper?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestFromViper_ProvisionerService_RequiereServiceKey(t *testing.T) {
	v := viper.New()
	v.Set("APP_BACKEND", "supabase")
	v.Set("SUPABASE_URL", "https://x.supabase.co")
	v.Set("SUPABASE_ANON_KEY", "anon")
	v.Set("SUPABASE_PROVISIONER", "service")

	_, err := fromViper(v)
	require.Error(t, err)

	v.Set("SUPABASE_SERVICE_KEY", "service")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ProvisionerService, cfg.Supabase.Provisioner)
}

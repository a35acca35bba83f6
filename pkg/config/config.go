package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Backends soportados para la plataforma remota.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Backends soportados para el almacenamiento de sesiones.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	Supabase  SupabaseConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Session   SessionConfig
	Redis     RedisConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	Backend  string // supabase, postgres, memory
	LogLevel string
}

// DBConfig configuración de PostgreSQL (backend "postgres").
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	ForceIPv4   bool // resolver el host a IPv4 antes de conectar (contenedores sin IPv6)
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// Formas de asignar el rol company_admin en el backend supabase.
const (
	ProvisionerRPC      = "rpc"      // procedimiento assign_company_admin_role
	ProvisionerFunction = "function" // función serverless assign-company-role
	ProvisionerService  = "service"  // inserción directa con la service key
)

// SupabaseConfig credenciales del proyecto alojado (auth, tablas, storage, funciones).
type SupabaseConfig struct {
	URL         string
	AnonKey     string
	ServiceKey  string // solo para tareas administrativas; el flujo normal usa el token del usuario
	Provisioner string // rpc, function, service
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig dónde se persisten las sesiones de cliente.
type SessionConfig struct {
	Backend    string // file, redis, memory
	Dir        string // directorio para el backend file
	TTLMinutes int    // 0 = sin vencimiento (solo redis)
}

// RedisConfig conexión a Redis para el backend de sesiones compartido.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig almacenamiento de objetos (logos de empresa).
type StorageConfig struct {
	LogoBucket string
	Dir        string // raíz en disco para el backend postgres
}

// RateLimitConfig límites para los endpoints públicos de auth.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, SUPABASE_URL, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "wasper-business-hub"),
			Backend:  strings.ToLower(getString(v, "APP_BACKEND", BackendSupabase)),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "wasper"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
			MinConns:    getInt(v, "DB_MIN_CONNS", 1),
			ForceIPv4:   v.GetBool("DB_FORCE_IPV4"),
		},
		Supabase: SupabaseConfig{
			URL:         getString(v, "SUPABASE_URL", ""),
			AnonKey:     getString(v, "SUPABASE_ANON_KEY", ""),
			ServiceKey:  getString(v, "SUPABASE_SERVICE_KEY", ""),
			Provisioner: strings.ToLower(getString(v, "SUPABASE_PROVISIONER", ProvisionerRPC)),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60*24),
			Issuer:     getString(v, "JWT_ISSUER", "wasper-business-hub"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Session: SessionConfig{
			Backend:    strings.ToLower(getString(v, "SESSION_BACKEND", SessionBackendFile)),
			Dir:        getString(v, "SESSION_DIR", "./data/sessions"),
			TTLMinutes: getInt(v, "SESSION_TTL_MINUTES", 0),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Storage: StorageConfig{
			LogoBucket: getString(v, "LOGO_BUCKET", "company-logos"),
			Dir:        getString(v, "STORAGE_DIR", "./data/storage"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getInt(v, "RATE_LIMIT_RPS", 5),
			Burst: getInt(v, "RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate revisa solo combinaciones imposibles; los valores faltantes se reportan al usarlos.
func (c *Config) validate() error {
	switch c.App.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return fmt.Errorf("config: SUPABASE_URL y SUPABASE_ANON_KEY son requeridos con APP_BACKEND=supabase")
		}
		switch c.Supabase.Provisioner {
		case ProvisionerRPC, ProvisionerFunction:
		case ProvisionerService:
			if c.Supabase.ServiceKey == "" {
				return fmt.Errorf("config: SUPABASE_PROVISIONER=service requiere SUPABASE_SERVICE_KEY")
			}
		default:
			return fmt.Errorf("config: SUPABASE_PROVISIONER desconocido %q", c.Supabase.Provisioner)
		}
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("config: APP_BACKEND desconocido %q", c.App.Backend)
	}
	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("config: SESSION_BACKEND desconocido %q", c.Session.Backend)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	AuthModeNone = "none"
	AuthModeHMAC = "hmac"
	AuthModeJWKS = "jwks"
)

type Config struct {
	ServerPort         string        `mapstructure:"server_port" validate:"required,numeric"`
	AppEnv             string        `mapstructure:"app_env" validate:"oneof=local alpha beta prod"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format" validate:"oneof=json console"`
	MetricsEnabled     bool          `mapstructure:"metrics_enabled"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	DB                 DBConfig      `mapstructure:"db"`
	Auth               AuthConfig    `mapstructure:"auth"`
	Tracing            TracingConfig `mapstructure:"tracing"`
}

type DBConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path         string `mapstructure:"path"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port" validate:"omitempty,numeric"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

type AuthConfig struct {
	Mode      string `mapstructure:"mode" validate:"oneof=none hmac jwks"`
	JWTSecret string `mapstructure:"jwt_secret"`
	JWKSURL   string `mapstructure:"jwks_url" validate:"omitempty,url"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type TracingConfig struct {
	Exporter string `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint string `mapstructure:"endpoint"`
}

// defaults doubles as the key registry: viper only resolves environment
// variables for keys it already knows about.
var defaults = map[string]any{
	"server_port":          "8080",
	"app_env":              "local",
	"log_level":            "info",
	"log_format":           "json",
	"metrics_enabled":      true,
	"cors_allowed_origins": []string{"*"},
	"db.driver":            DriverSQLite,
	"db.path":              "todos.db",
	"db.host":              "",
	"db.port":              "5432",
	"db.user":              "todo",
	"db.password":          "todo",
	"db.name":              "todo",
	"db.sslmode":           "disable",
	"db.max_open_conns":    10,
	"auth.mode":            AuthModeNone,
	"auth.jwt_secret":      "",
	"auth.jwks_url":        "",
	"auth.issuer":          "",
	"auth.audience":        "",
	"tracing.exporter":     "none",
	"tracing.endpoint":     "",
}

// Load resolves configuration from defaults, the optional YAML file at path,
// and environment variables, in increasing order of precedence. Nested keys
// map to upper-case variables with '.' replaced by '_' (db.host -> DB_HOST).
func Load(path string) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (c Config) ParseLogLevel() zerolog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DB.Driver == DriverPostgres && c.DB.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_DRIVER is %s", DriverPostgres)
	}
	if c.DB.Driver == DriverSQLite && c.DB.Path == "" {
		return fmt.Errorf("DB_PATH is required when DB_DRIVER is %s", DriverSQLite)
	}
	switch c.Auth.Mode {
	case AuthModeNone:
		if c.AppEnv == "prod" {
			return fmt.Errorf("AUTH_MODE must not be %s in %s environment", AuthModeNone, c.AppEnv)
		}
	case AuthModeHMAC:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE is %s", AuthModeHMAC)
		}
	case AuthModeJWKS:
		if c.Auth.JWKSURL == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_MODE is %s", AuthModeJWKS)
		}
	}
	if c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("TRACING_ENDPOINT is required when TRACING_EXPORTER is otlp")
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (d DBConfig) DSN() string {
	if d.Driver != DriverPostgres {
		return d.Path
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

package api_gateway_config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NordCoder/Vidtube/internal/obs"
	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type Auth struct {
	Issuer         string        `mapstructure:"issuer"`
	AccessSecret   string        `mapstructure:"access_secret"`
	RefreshSecret  string        `mapstructure:"refresh_secret"`
	AccessTTL      time.Duration `mapstructure:"access_ttl"`
	RefreshTTL     time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	MinPasswordLen int           `mapstructure:"min_password_len"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	CookiePath     string        `mapstructure:"cookie_path"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieSameSite string        `mapstructure:"cookie_same_site"`
}

func (a *Auth) SameSite() http.SameSite {
	switch strings.ToLower(a.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Storage selects the credential store: "postgres" or "memory".
type Storage struct {
	Driver string `mapstructure:"driver"`
}

type Config struct {
	App     App       `mapstructure:"app"`
	Server  Server    `mapstructure:"server"`
	Storage Storage   `mapstructure:"storage"`
	DB      pg.Config `mapstructure:"db"`
	OTEL    OTEL      `mapstructure:"otel"`
	Log     Log       `mapstructure:"log"`
	Auth    Auth      `mapstructure:"auth"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

const (
	ErrNoAccessSecret  ErrConfig = "auth.access_secret is empty"
	ErrNoRefreshSecret ErrConfig = "auth.refresh_secret is empty"
	ErrSharedSecret    ErrConfig = "auth.access_secret and auth.refresh_secret must differ"
)

// Validate reports every problem at once; callers treat any error as fatal.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.AccessSecret == "" {
		errs = append(errs, ErrNoAccessSecret)
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, ErrNoRefreshSecret)
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, ErrSharedSecret)
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, ErrConfig("auth.access_ttl must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 {
		errs = append(errs, ErrConfig("auth.refresh_ttl must be positive"))
	}
	switch c.Storage.Driver {
	case "postgres":
		if c.DB.DSN == "" {
			errs = append(errs, ErrConfig("db.dsn is empty"))
		}
	case "memory":
	default:
		errs = append(errs, ErrConfig(fmt.Sprintf("storage.driver %q is not supported", c.Storage.Driver)))
	}
	return errors.Join(errs...)
}

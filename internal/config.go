package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	OAuth         OAuthConfig         `mapstructure:"oauth"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Bank          BankConfig          `mapstructure:"bank"`
	UI            UIConfig            `mapstructure:"ui"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Environment       string        `mapstructure:"environment" validate:"omitempty,oneof=development production"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig selects where campaigns, expenses, files and sign-in are served from.
type BackendConfig struct {
	Mode    string        `mapstructure:"mode" validate:"required,oneof=remote local"`
	BaseURL string        `mapstructure:"base_url" validate:"required_if=Mode remote"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"omitempty,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"omitempty,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	SessionSecret   string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionDuration time.Duration `mapstructure:"session_duration" validate:"required,min=1m"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
	BCryptCost      int           `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=15"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url" validate:"omitempty,url"`
}

type PaymentConfig struct {
	StripeSecretKey      string `mapstructure:"stripe_secret_key" validate:"required"`
	StripePublishableKey string `mapstructure:"stripe_publishable_key" validate:"required"`
	WebhookSecret        string `mapstructure:"webhook_secret"`
	APIURL               string `mapstructure:"api_url" validate:"omitempty,url"`
	Currency             string `mapstructure:"currency" validate:"required,len=3"`
}

type BankConfig struct {
	Beneficiary string `mapstructure:"beneficiary"`
	IBAN        string `mapstructure:"iban"`
	BIC         string `mapstructure:"bic"`
	BankName    string `mapstructure:"bank_name"`
	// Reason prefixes the campaign slug in the transfer reference.
	Reason string `mapstructure:"reason"`
}

type UIConfig struct {
	DefaultLocale string        `mapstructure:"default_locale" validate:"required,oneof=bg en"`
	Breakpoint    int           `mapstructure:"breakpoint" validate:"required,min=1"`
	NoticeTTL     time.Duration `mapstructure:"notice_ttl"`
	FlowTTL       time.Duration `mapstructure:"flow_ttl"`
	Hero          HeroConfig    `mapstructure:"hero"`
}

type HeroConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" validate:"required"`
	Settle          time.Duration `mapstructure:"settle"`
	Frame           time.Duration `mapstructure:"frame" validate:"required"`
	Window          int           `mapstructure:"window" validate:"required,min=1"`
	Step            int           `mapstructure:"step" validate:"required,min=1"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size" validate:"omitempty,min=1"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name" validate:"required_if=Enabled true"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"min=0,max=1"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// ApplyDefaults fills in zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Backend.Mode == "" {
		c.Backend.Mode = BackendRemote
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Security.SessionDuration <= 0 {
		c.Security.SessionDuration = 24 * time.Hour
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "bgn"
	}
	if c.UI.DefaultLocale == "" {
		c.UI.DefaultLocale = "bg"
	}
	if c.UI.Breakpoint <= 0 {
		c.UI.Breakpoint = 900
	}
	if c.UI.NoticeTTL <= 0 {
		c.UI.NoticeTTL = 5 * time.Second
	}
	if c.UI.FlowTTL <= 0 {
		c.UI.FlowTTL = 30 * time.Minute
	}
	h := &c.UI.Hero
	if h.Timeout <= 0 {
		h.Timeout = 3000 * time.Millisecond
	}
	if h.Settle <= 0 {
		h.Settle = 400 * time.Millisecond
	}
	if h.Frame <= 0 {
		h.Frame = 50 * time.Millisecond
	}
	if h.Window <= 0 {
		h.Window = 5
	}
	if h.Step <= 0 {
		h.Step = 4
	}
	if h.RefreshInterval <= 0 {
		h.RefreshInterval = time.Minute
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 256
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(c.Backend.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.OAuth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("oauth config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate(mode string) error {
	if mode == BackendLocal && c.Source == "" {
		return errors.New("source is required for the local backend")
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *DatabaseConfig) Configured() bool {
	return c.Source != ""
}

func (c *OAuthConfig) Validate() error {
	if c.GoogleClientID != "" && (c.GoogleClientSecret == "" || c.GoogleRedirectURL == "") {
		return errors.New("google_client_secret and google_redirect_url are required with google_client_id")
	}
	return nil
}

func (c *OAuthConfig) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

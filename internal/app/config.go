package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"Console listen address"`
	BackendURL     string        `default:"http://localhost:5000" usage:"Inventory backend base URL" flag:"backend-url"`
	BackendTimeout time.Duration `default:"15s" usage:"Timeout of a single backend request" flag:"backend-timeout"`
	DatabaseURL    string        `usage:"Receipt journal PostgreSQL URL; the journal is kept in memory when empty" flag:"database-url"`
	Session        SessionConfig
	Sales          SalesConfig
	RateLimit      RateLimitConfig
	Graceful       GracefulConfig
}

// SessionConfig controls operator sessions.
type SessionConfig struct {
	Secret        string        `usage:"HMAC secret for session tokens, at least 16 bytes (POS_SESSION_SECRET)"`
	TTL           time.Duration `default:"12h" usage:"Idle lifetime of a session"`
	SecureCookies bool          `default:"false" usage:"Mark cookies Secure (serve over HTTPS)"`
	MaxSessions   int           `default:"500" usage:"Maximum concurrent operator sessions"`
}

// SalesConfig controls checkout and the receipt journal.
type SalesConfig struct {
	TaxRate         string `default:"0.10" usage:"Sales tax rate applied to the cart subtotal"`
	PaymentMethod   string `default:"cash" usage:"Payment method sent with every sale"`
	RecentSales     int    `default:"10" usage:"Number of recent sales on the POS page"`
	JournalCapacity int    `default:"1000" usage:"Receipts kept by the in-memory journal"`
	ExportMaxPages  int    `default:"50" usage:"Maximum pages of 100 sales in an export"`
}

// Rate parses TaxRate.
func (c SalesConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "tax rate %q", c.TaxRate)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, errors.Errorf("tax rate %s outside [0, 1)", rate)
	}
	return rate, nil
}

// RateLimitConfig controls the sign-in attempt limiter.
type RateLimitConfig struct {
	Max        int           `default:"10" usage:"Sign-in attempts per window and client"`
	Window     time.Duration `default:"1m" usage:"Sign-in rate limit window"`
	TrustProxy bool          `default:"false" usage:"Key clients by X-Forwarded-For / X-Real-IP" flag:"trust-proxy"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env (if present), then configuration from environment
// variables, YAML config files and flags, and applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(os.Args[1:], []string{"config.yaml", "/etc/pos/config.yaml"})
}

func loadConfig(args, files []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Args:      args,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("backend URL is required: set POS_BACKEND_URL")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session secret of at least 16 bytes is required: set POS_SESSION_SECRET")
	}
	if _, err := c.Sales.Rate(); err != nil {
		return errors.Wrap(err, "invalid sales config")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the POS_-prefixed settings.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

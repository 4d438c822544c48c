package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Identity provider
	AuthProjectID       string   `mapstructure:"AUTH_PROJECT_ID"`
	AuthJWKSURL         string   `mapstructure:"AUTH_JWKS_URL"`
	AuthCredentialsFile string   `mapstructure:"AUTH_CREDENTIALS_FILE"`
	AuthSigningKey      string   `mapstructure:"AUTH_SIGNING_KEY"`
	AllowedEmails       []string `mapstructure:"ALLOWED_EMAILS"`
	AllowedDomains      []string `mapstructure:"ALLOWED_DOMAINS"`

	// Payment provider
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	StripePriceID   string `mapstructure:"STRIPE_PRICE_ID"`
	SiteURL         string `mapstructure:"SITE_URL"`

	// Language model provider
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel  string `mapstructure:"OPENAI_MODEL"`

	// Documents
	PDFLogoFile string `mapstructure:"PDF_LOGO_FILE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SITE_URL", "http://localhost:5173")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS",
		"AUTH_PROJECT_ID", "AUTH_JWKS_URL", "AUTH_CREDENTIALS_FILE", "AUTH_SIGNING_KEY",
		"ALLOWED_EMAILS", "ALLOWED_DOMAINS",
		"STRIPE_SECRET_KEY", "STRIPE_PRICE_ID", "SITE_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"PDF_LOGO_FILE",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.AllowedEmails = splitList(v.GetString("ALLOWED_EMAILS"))
	cfg.AllowedDomains = splitList(v.GetString("ALLOWED_DOMAINS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Identity tokens are verified with AUTH_SIGNING_KEY and revocation is not checked.")
		log.Println("WARNING: Set ENV=production and configure AUTH_PROJECT_ID for production.")
	}

	return cfg, nil
}

// splitList parses a comma-separated env value into trimmed, non-empty items.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the identity provider project must be configured so that audience and
// revocation checks are enforced, and the payment provider keys must be
// complete: a half-configured provider would otherwise only surface at
// request time.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.AuthProjectID == "" {
			return fmt.Errorf(
				"AUTH_PROJECT_ID must be set when ENV=%q. "+
					"Refusing to start without a trusted identity project: "+
					"tokens minted for other deployments would be accepted", c.Env)
		}
		if c.AuthSigningKey != "" {
			return fmt.Errorf("AUTH_SIGNING_KEY is a development shortcut and must not be set when ENV=%q", c.Env)
		}
		if c.AuthCredentialsFile == "" {
			return fmt.Errorf("AUTH_CREDENTIALS_FILE is required when ENV=%q so token revocation can be checked", c.Env)
		}
	}

	if (c.StripeSecretKey == "") != (c.StripePriceID == "") {
		return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_PRICE_ID must be set together")
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}

	return nil
}

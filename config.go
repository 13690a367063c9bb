package miniauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the auth layer reads from the environment. Values
// default to something workable for local development; deployments override
// via MINIAUTH_* variables.
type Config struct {
	Addr        string `env:"MINIAUTH_ADDR"         envDefault:":8086"`
	DatabaseURL string `env:"MINIAUTH_DATABASE_URL" envDefault:"postgres://localhost:5432/miniauth"`

	// Salt keys both the OTP digest and the password derivation. It must be
	// set to a real secret outside of development.
	Salt             string `env:"MINIAUTH_SALT"              envDefault:"dev-only-salt"`
	PBKDF2Iterations int    `env:"MINIAUTH_PBKDF2_ITERATIONS" envDefault:"100000"`

	CookieInsecure bool          `env:"MINIAUTH_COOKIE_INSECURE" envDefault:"false"`
	SessionTTL     time.Duration `env:"MINIAUTH_SESSION_TTL"     envDefault:"24h"`
	OTPTTL         time.Duration `env:"MINIAUTH_OTP_TTL"         envDefault:"10m"`

	GoogleClientID     string `env:"MINIAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"MINIAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"MINIAUTH_GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8086/auth/google"`

	JWTSecretKey string `env:"MINIAUTH_JWT_SECRET_KEY" envDefault:"dev-only-jwt-secret"`
	JWTIssuer    string `env:"MINIAUTH_JWT_ISSUER"     envDefault:"miniauth"`

	SMTPHost     string `env:"MINIAUTH_SMTP_HOST"`
	SMTPPort     int    `env:"MINIAUTH_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"MINIAUTH_SMTP_USERNAME"`
	SMTPPassword string `env:"MINIAUTH_SMTP_PASSWORD"`
	SMTPFrom     string `env:"MINIAUTH_SMTP_FROM"`
}

// LoadConfigFromEnv parses configuration from the environment and applies
// defensive defaults for the security-sensitive values.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PBKDF2Iterations < MinPBKDF2Iterations {
		cfg.PBKDF2Iterations = MinPBKDF2Iterations
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	return cfg, nil
}

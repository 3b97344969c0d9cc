package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Identity provider names accepted by IDENTITY_PROVIDER.
const (
	ProviderMemory   = "memory"
	ProviderFirebase = "firebase"
)

// Config holds all configuration for the application.
type Config struct {
	Addr          string `env:"APP_ADDR" envDefault:":8080" validate:"required"`
	SessionSecret string `env:"SESSION_SECRET" validate:"required,min=16"`

	// BackendBaseURL is where the protected view sends its "me" request.
	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:3000" validate:"required,url"`

	IdentityProvider     string `env:"IDENTITY_PROVIDER" envDefault:"memory" validate:"oneof=memory firebase"`
	FirebaseAPIKey       string `env:"FIREBASE_API_KEY" validate:"required_if=IdentityProvider firebase"`
	FirebaseEmulatorHost string `env:"FIREBASE_AUTH_EMULATOR_HOST" validate:"omitempty,hostname_port"`

	MemoryStorePath   string        `env:"MEMORY_STORE_PATH"`
	MemoryTokenSecret string        `env:"MEMORY_TOKEN_SECRET"`
	MemoryInitDelay   time.Duration `env:"MEMORY_INIT_DELAY" envDefault:"0s" validate:"gte=0"`

	// BlockSignUpOnMismatch stops sign-up when the confirmation differs.
	// Off by default: a mismatch only raises a warning.
	BlockSignUpOnMismatch bool `env:"SIGNUP_BLOCK_ON_MISMATCH" envDefault:"false"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m" validate:"gt=0"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"debug" validate:"oneof=debug info warn error"`
}

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv parses and validates configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, fe.StructField(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

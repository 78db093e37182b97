package initializers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	AppEnv   string `env:"APP_ENV" env-default:"development"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Secret     string        `env:"SECRET" env-required:"true"`
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"720h"`

	StoreBackend string `env:"STORE_BACKEND" env-default:"firestore"`
	DBURL        string `env:"DB_URL"`

	FirebaseProjectID          string `env:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`

	NominatimURL       string  `env:"NOMINATIM_URL" env-default:"https://nominatim.openstreetmap.org"`
	NominatimUserAgent string  `env:"NOMINATIM_USER_AGENT" env-default:"PrayerWall/1.0"`
	NominatimRPS       float64 `env:"NOMINATIM_RPS" env-default:"1"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" env-default:"Prayer Wall <noreply@prayerwall.app>"`
}

// LoadEnv reads a .env file into the process environment when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("SECRET must be at least 16 characters (got %d)", len(c.Secret))
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive (got %s)", c.SessionTTL)
	}
	if c.NominatimRPS <= 0 {
		return fmt.Errorf("NOMINATIM_RPS must be positive (got %v)", c.NominatimRPS)
	}

	switch c.StoreBackend {
	case StorePostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL is required when STORE_BACKEND=postgres")
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesFirebase reports whether Firebase has to be initialized. Sign-in always
// goes through Firebase Authentication, so only the memory backend used for
// local development can run without it.
func (c *Config) UsesFirebase() bool {
	return c.StoreBackend != StoreMemory || c.FirebaseProjectID != "" || c.FirebaseServiceAccountPath != ""
}

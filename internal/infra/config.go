package infra

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"algotrade/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config holds everything read from the daemon's YAML config file.
// Secrets loaded from the file are overridable by environment
// variables, applied after unmarshalling so the file never needs to
// carry live credentials in version control.
type Config struct {
	App struct {
		Name string `yaml:"name"`
	} `yaml:"app"`

	Trading struct {
		Mode     string        `yaml:"mode"`
		MinDelay time.Duration `yaml:"min_delay"`
		MaxDelay time.Duration `yaml:"max_delay"`
	} `yaml:"trading"`

	Credentials []domain.Credentials `yaml:"credentials"`

	Storage struct {
		AuditDBPath string `yaml:"audit_db_path"`
	} `yaml:"storage"`

	Notify struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"notify"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the YAML config file at path, overrides
// secrets from the environment, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration invariants that must hold before the
// daemon starts accepting webhook traffic.
func (c *Config) Validate() error {
	if len(c.Credentials) == 0 {
		return fmt.Errorf("at least one exchange credentials entry is required")
	}
	seen := make(map[string]struct{}, len(c.Credentials))
	for _, cred := range c.Credentials {
		if cred.Name == "" {
			return fmt.Errorf("credentials entry missing a name")
		}
		if cred.Exchange == "" {
			return fmt.Errorf("credentials entry %q missing an exchange", cred.Name)
		}
		if _, dup := seen[strings.ToLower(cred.Name)]; dup {
			return fmt.Errorf("duplicate credentials name %q", cred.Name)
		}
		seen[strings.ToLower(cred.Name)] = struct{}{}
	}

	if c.Trading.MinDelay <= 0 {
		c.Trading.MinDelay = time.Second
	}
	if c.Trading.MaxDelay <= 0 {
		c.Trading.MaxDelay = 30 * time.Second
	}
	if c.Trading.MaxDelay < c.Trading.MinDelay {
		return fmt.Errorf("trading.max_delay (%s) must be >= trading.min_delay (%s)", c.Trading.MaxDelay, c.Trading.MinDelay)
	}

	return nil
}

// LogLevel parses Logging.Level into a slog.Level, defaulting to Info
// on an empty or unrecognized value.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// overrideWithEnv applies ALGOTRADE_<EXCHANGE>_KEY/_SECRET/_PASSPHRASE
// environment variables over the matching credentials entry's
// exchange name, so a config file can be committed without secrets.
func overrideWithEnv(cfg *Config) {
	for i := range cfg.Credentials {
		cred := &cfg.Credentials[i]
		prefix := "ALGOTRADE_" + strings.ToUpper(cred.Exchange) + "_"
		if v := os.Getenv(prefix + "KEY"); v != "" {
			cred.Key = v
		}
		if v := os.Getenv(prefix + "SECRET"); v != "" {
			cred.Secret = v
		}
		if v := os.Getenv(prefix + "PASSPHRASE"); v != "" {
			cred.Passphrase = v
		}
	}
}

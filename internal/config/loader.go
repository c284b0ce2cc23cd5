package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Environment variables that override file values.
const (
	EnvPort        = "PORT"
	EnvTokenSecret = "ACCESS_TOKEN_SECRET"
	EnvStripeKey   = "STRIPE_SECRET_KEY"
	EnvMongoURI    = "MONGODB_URI"
	EnvDBUser      = "DB_USER"
	EnvDBPass      = "DB_PASS"
	EnvRedisURL    = "REDIS_URL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig and
// applies environment overrides. An empty path yields defaults plus overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		data, err := os.ReadFile(absPath) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := parseInto(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := parseInto(cfg, data); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseInto(cfg *Config, data []byte) error {
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values. "$$" escapes a literal dollar sign.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}
		if value, exists := os.LookupEnv(submatches[1]); exists {
			return value
		}
		if len(submatches) >= 3 {
			return submatches[2]
		}
		return ""
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Auth.TokenSecret = v
	}
	if v := os.Getenv(EnvStripeKey); v != "" {
		cfg.Payment.SecretKey = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Store.URI = v
	}
	if user := os.Getenv(EnvDBUser); user != "" && cfg.Store.URI != "" {
		uri, err := withCredentials(cfg.Store.URI, user, os.Getenv(EnvDBPass))
		if err != nil {
			return err
		}
		cfg.Store.URI = uri
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		if cfg.Cache.Redis == nil {
			cfg.Cache.Redis = &RedisCacheConfig{}
		}
		cfg.Cache.Redis.URL = v
	}
	return nil
}

// withCredentials injects user and password into a connection URI that
// carries none. URIs with existing credentials are returned unchanged.
func withCredentials(raw, user, pass string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid store uri: %w", err)
	}
	if u.User != nil {
		return raw, nil
	}
	u.User = url.UserPassword(user, pass)
	return u.String(), nil
}

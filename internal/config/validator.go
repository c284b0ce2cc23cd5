package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a service configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = nil

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateAuth(&cfg.Auth)
	v.validateStore(&cfg.Store)
	v.validatePayment(&cfg.Payment)
	v.validateCache(&cfg.Cache)
	v.validateObservability(&cfg.Observability)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Port < 0 || s.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port %d is out of range", s.Port))
	}
	v.nonNegative("server.readTimeout", s.ReadTimeout)
	v.nonNegative("server.writeTimeout", s.WriteTimeout)
	v.nonNegative("server.idleTimeout", s.IdleTimeout)
	v.nonNegative("server.shutdownTimeout", s.ShutdownTimeout)
	v.nonNegative("server.requestTimeout", s.RequestTimeout)
	if s.MaxRequestBodySize < 0 {
		v.addError("server.maxRequestBodySize", "must not be negative")
	}
}

func (v *Validator) validateAuth(a *AuthConfig) {
	if a.TokenSecret == "" {
		v.addError("auth.tokenSecret", "token secret is required (set "+EnvTokenSecret+")")
	}
	if a.TokenTTL <= 0 {
		v.addError("auth.tokenTTL", "token TTL must be positive")
	}
	v.nonNegative("auth.clockSkew", a.ClockSkew)
}

func (v *Validator) validateStore(s *StoreConfig) {
	switch s.Driver {
	case StoreDriverMongo:
		if s.URI == "" {
			v.addError("store.uri", "uri is required for the mongo driver (set "+EnvMongoURI+")")
		}
	case StoreDriverMemory:
	default:
		v.addError("store.driver", fmt.Sprintf("unknown store driver %q", s.Driver))
	}
	if s.Database == "" {
		v.addError("store.database", "database is required")
	}
	v.nonNegative("store.timeout", s.Timeout)

	c := s.Collections
	for path, name := range map[string]string{
		"store.collections.accounts": c.Accounts,
		"store.collections.menu":     c.Menu,
		"store.collections.carts":    c.Carts,
		"store.collections.reviews":  c.Reviews,
	} {
		if name == "" {
			v.addError(path, "collection name is required")
		}
	}
}

func (v *Validator) validatePayment(p *PaymentConfig) {
	if p.Currency == "" {
		v.addError("payment.currency", "currency is required")
	}
	if len(p.Methods) == 0 {
		v.addError("payment.methods", "at least one payment method is required")
	}
	v.nonNegative("payment.timeout", p.Timeout)
	if p.Breaker.Enabled && p.Breaker.Threshold < 1 {
		v.addError("payment.breaker.threshold", "threshold must be at least 1")
	}
}

func (v *Validator) validateCache(c *CacheConfig) {
	if !c.Enabled {
		return
	}
	switch c.Type {
	case CacheTypeMemory:
	case CacheTypeRedis:
		if c.Redis == nil || c.Redis.URL == "" {
			v.addError("cache.redis.url", "url is required for the redis cache (set "+EnvRedisURL+")")
		}
	default:
		v.addError("cache.type", fmt.Sprintf("unknown cache type %q", c.Type))
	}
	v.nonNegative("cache.ttl", c.TTL)
}

func (v *Validator) validateObservability(o *ObservabilityConfig) {
	switch o.LogFormat {
	case "", "json", "console":
	default:
		v.addError("observability.logFormat", fmt.Sprintf("unknown log format %q", o.LogFormat))
	}
	if o.Tracing.Enabled && (o.Tracing.SampleRate < 0 || o.Tracing.SampleRate > 1) {
		v.addError("observability.tracing.sampleRate", "sample rate must be within [0, 1]")
	}
}

func (v *Validator) nonNegative(path string, d Duration) {
	if d < 0 {
		v.addError(path, "must not be negative")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

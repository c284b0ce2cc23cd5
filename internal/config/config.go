package config

import "time"

// Store drivers.
const (
	// StoreDriverMongo persists documents in MongoDB.
	StoreDriverMongo = "mongo"
	// StoreDriverMemory keeps documents in process memory.
	StoreDriverMemory = "memory"
)

// Cache types.
const (
	// CacheTypeMemory is an in-process LRU cache.
	CacheTypeMemory = "memory"
	// CacheTypeRedis is a Redis-backed cache.
	CacheTypeRedis = "redis"
)

// Config is the root configuration of the restaurant service.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Auth          AuthConfig          `yaml:"auth" json:"auth"`
	Store         StoreConfig         `yaml:"store" json:"store"`
	Payment       PaymentConfig       `yaml:"payment" json:"payment"`
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the bind address. Empty binds all interfaces.
	Address string `yaml:"address,omitempty" json:"address,omitempty"`

	// Port is the listen port.
	Port int `yaml:"port" json:"port"`

	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout     Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// RequestTimeout bounds the whole handler chain of a single request.
	RequestTimeout Duration `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"`

	// MaxRequestBodySize is the maximum accepted request body in bytes. Zero disables the limit.
	MaxRequestBodySize int64 `yaml:"maxRequestBodySize,omitempty" json:"maxRequestBodySize,omitempty"`

	CORS CORSConfig `yaml:"cors" json:"cors"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins,omitempty" json:"allowOrigins,omitempty"`
	AllowMethods     []string `yaml:"allowMethods,omitempty" json:"allowMethods,omitempty"`
	AllowHeaders     []string `yaml:"allowHeaders,omitempty" json:"allowHeaders,omitempty"`
	AllowCredentials bool     `yaml:"allowCredentials,omitempty" json:"allowCredentials,omitempty"`
	MaxAge           int      `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
}

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	// TokenSecret is the HMAC secret used to sign and verify bearer tokens.
	TokenSecret string `yaml:"tokenSecret" json:"-"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL Duration `yaml:"tokenTTL,omitempty" json:"tokenTTL,omitempty"`

	// ClockSkew is the tolerated clock drift when checking expiry.
	ClockSkew Duration `yaml:"clockSkew,omitempty" json:"clockSkew,omitempty"`

	// Issuer is stamped into issued tokens and required on verification when set.
	Issuer string `yaml:"issuer,omitempty" json:"issuer,omitempty"`

	// RequireKnownAccount makes issuance reject payloads whose email has no stored account.
	RequireKnownAccount bool `yaml:"requireKnownAccount,omitempty" json:"requireKnownAccount,omitempty"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	Driver      string            `yaml:"driver" json:"driver"`
	URI         string            `yaml:"uri,omitempty" json:"-"`
	Database    string            `yaml:"database" json:"database"`
	Timeout     Duration          `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Collections CollectionsConfig `yaml:"collections" json:"collections"`
}

// CollectionsConfig names the collection of each resource kind.
type CollectionsConfig struct {
	Accounts string `yaml:"accounts" json:"accounts"`
	Menu     string `yaml:"menu" json:"menu"`
	Carts    string `yaml:"carts" json:"carts"`
	Reviews  string `yaml:"reviews" json:"reviews"`
}

// PaymentConfig configures the payment processor.
type PaymentConfig struct {
	SecretKey string   `yaml:"secretKey" json:"-"`
	Currency  string   `yaml:"currency" json:"currency"`
	Methods   []string `yaml:"methods" json:"methods"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// APIURL overrides the processor API base URL (used against mocks).
	APIURL string `yaml:"apiURL,omitempty" json:"apiURL,omitempty"`

	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the processor.
type BreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// CacheConfig configures the role lookup cache.
type CacheConfig struct {
	Enabled    bool              `yaml:"enabled" json:"enabled"`
	Type       string            `yaml:"type,omitempty" json:"type,omitempty"`
	TTL        Duration          `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	MaxEntries int               `yaml:"maxEntries,omitempty" json:"maxEntries,omitempty"`
	Redis      *RedisCacheConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisCacheConfig configures the Redis cache backend.
type RedisCacheConfig struct {
	URL       string `yaml:"url" json:"-"`
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
}

// ObservabilityConfig configures logging, metrics and tracing.
type ObservabilityConfig struct {
	LogLevel  string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogFormat string        `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`
	Metrics   MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig `yaml:"tracing" json:"tracing"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SampleRate  float64 `yaml:"sampleRate,omitempty" json:"sampleRate,omitempty"`
	ServiceName string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	Insecure    bool    `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               5000,
			ReadTimeout:        Duration(30 * time.Second),
			WriteTimeout:       Duration(30 * time.Second),
			IdleTimeout:        Duration(120 * time.Second),
			ShutdownTimeout:    Duration(30 * time.Second),
			RequestTimeout:     Duration(20 * time.Second),
			MaxRequestBodySize: 1 << 20,
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
				AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
				MaxAge:       86400,
			},
		},
		Auth: AuthConfig{
			TokenTTL:  Duration(time.Hour),
			ClockSkew: 0,
		},
		Store: StoreConfig{
			Driver:   StoreDriverMongo,
			Database: "lightTest",
			Timeout:  Duration(5 * time.Second),
			Collections: CollectionsConfig{
				Accounts: "user",
				Menu:     "menu",
				Carts:    "carts",
				Reviews:  "reviews",
			},
		},
		Payment: PaymentConfig{
			Currency: "usd",
			Methods:  []string{"card"},
			Timeout:  Duration(10 * time.Second),
			Breaker: BreakerConfig{
				Enabled:   true,
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
		},
		Cache: CacheConfig{
			Enabled:    false,
			Type:       CacheTypeMemory,
			TTL:        Duration(30 * time.Second),
			MaxEntries: 10000,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "localhost:4317",
				SampleRate:  1.0,
				ServiceName: "restaurant",
				Insecure:    true,
			},
		},
	}
}

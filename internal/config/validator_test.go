package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.TokenSecret = "secret"
	cfg.Store.URI = "mongodb://localhost:27017"
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateConfig(validConfig()))

	cfg := validConfig()
	cfg.Store.Driver = StoreDriverMemory
	cfg.Store.URI = ""
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is nil")
}

func TestValidateConfig_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "empty token secret", mutate: func(c *Config) { c.Auth.TokenSecret = "" }, path: "auth.tokenSecret"},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, path: "auth.tokenTTL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "postgres" }, path: "store.driver"},
		{name: "mongo without uri", mutate: func(c *Config) { c.Store.URI = "" }, path: "store.uri"},
		{name: "empty collection", mutate: func(c *Config) { c.Store.Collections.Carts = "" }, path: "store.collections.carts"},
		{
			name: "unknown cache type",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Type = "memcached"
			},
			path: "cache.type",
		},
		{
			name: "redis cache without url",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Type = CacheTypeRedis
			},
			path: "cache.redis.url",
		},
		{name: "empty currency", mutate: func(c *Config) { c.Payment.Currency = "" }, path: "payment.currency"},
		{name: "no payment methods", mutate: func(c *Config) { c.Payment.Methods = nil }, path: "payment.methods"},
		{name: "negative store timeout", mutate: func(c *Config) { c.Store.Timeout = -1 }, path: "store.timeout"},
		{name: "negative request timeout", mutate: func(c *Config) { c.Server.RequestTimeout = -1 }, path: "server.requestTimeout"},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, path: "server.port"},
		{name: "unknown log format", mutate: func(c *Config) { c.Observability.LogFormat = "xml" }, path: "observability.logFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.path, verrs[0].Path)
		})
	}
}

func TestValidateConfig_DisabledCacheSkipped(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Cache.Type = "anything"
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: b", ValidationErrors{{Path: "a", Message: "b"}}.Error())

	multi := ValidationErrors{{Path: "a", Message: "b"}, {Message: "c"}}
	assert.Equal(t, "2 validation errors:\n  1. a: b\n  2. c\n", multi.Error())
}

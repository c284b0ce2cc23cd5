// Package config provides configuration loading for the restaurant service.
//
// Configuration is read from a YAML file laid over DefaultConfig. Values may
// reference the environment with ${VAR} or ${VAR:-default}; a literal dollar
// sign is written as $$. A handful of well-known variables (PORT,
// ACCESS_TOKEN_SECRET, STRIPE_SECRET_KEY, MONGODB_URI, REDIS_URL) override the
// file after parsing. LoadDotEnv seeds the environment from a .env file.
//
//	if err := config.LoadDotEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.LoadConfig("configs/restaurant.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// The loaded configuration is treated as immutable once the service starts.
package config

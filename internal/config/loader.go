package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML file, the process
// environment and a .env file, in increasing order of precedence for the
// environment. An empty path searches ./configs and the working directory
// for config.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4001)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("token.secret", "")
	v.SetDefault("token.ttl", time.Hour)
	v.SetDefault("token.revocation_enabled", true)

	v.SetDefault("payment.webhook_secret", "")
	v.SetDefault("payment.checkout_url", "https://checkout.example.com/pay")

	v.SetDefault("storage.encryption_key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.login_rps", 0.2)
	v.SetDefault("ratelimit.login_burst", 5)
}

// normalize trims list values that arrive as a comma-separated env var.
func normalize(cfg *Config) {
	origins := make([]string, 0, len(cfg.Server.CORSOrigins))
	for _, o := range cfg.Server.CORSOrigins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	cfg.Server.CORSOrigins = origins
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url (DATABASE_URL) is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (AUTH_JWT_SECRET) is required")
	}
	if cfg.Token.Secret == "" {
		return fmt.Errorf("token.secret (TOKEN_SECRET) is required")
	}
	if cfg.Token.Secret == cfg.Auth.JWTSecret {
		return fmt.Errorf("token.secret must differ from auth.jwt_secret")
	}
	if cfg.Token.TTL <= 0 {
		return fmt.Errorf("token.ttl must be positive")
	}
	if cfg.Token.RevocationEnabled && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address (REDIS_ADDRESS) is required when token revocation is enabled")
	}
	if len(cfg.Storage.EncryptionKey) != 32 {
		return fmt.Errorf("storage.encryption_key must be exactly 32 bytes, got %d", len(cfg.Storage.EncryptionKey))
	}
	if cfg.Payment.WebhookSecret == "" {
		return fmt.Errorf("payment.webhook_secret (PAYMENT_WEBHOOK_SECRET) is required")
	}
	return nil
}

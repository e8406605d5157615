package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read once at startup from the environment (or an optional
// .env file next to the binary).
type Config struct {
	Port         string        `mapstructure:"PORT"`
	PostgresURL  string        `mapstructure:"POSTGRES_URL"`
	RedisAddr    string        `mapstructure:"REDIS_ADDR"`
	KafkaBrokers string        `mapstructure:"KAFKA_BROKERS"`
	OTLPEndpoint string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	BookCacheTTL time.Duration `mapstructure:"BOOK_CACHE_TTL"`

	// Gateway upstreams.
	InventoryServiceURL string `mapstructure:"INVENTORY_SERVICE_URL"`
	UserServiceURL      string `mapstructure:"USER_SERVICE_URL"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults double as the key registry viper needs before AutomaticEnv
	// can resolve them.
	v.SetDefault("PORT", "8082")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("BOOK_CACHE_TTL", 5*time.Minute)
	v.SetDefault("INVENTORY_SERVICE_URL", "")
	v.SetDefault("USER_SERVICE_URL", "")

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // optional
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Brokers splits the comma-separated broker list; empty means kafka is
// not configured and event publishing is disabled.
func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads ./configs/config.yaml (or ./config.yaml), then the process
// environment. A .env file in the working directory is applied first and never
// overrides variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	return load(v)
}

// LoadFile reads the given YAML file instead of searching the config paths.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	_ = v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER", "APP_DATABASE_DRIVER")
	_ = v.BindEnv("database.path", "DATABASE_PATH", "DB_PATH", "APP_DATABASE_PATH")
	_ = v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	_ = v.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	_ = v.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	_ = v.BindEnv("security.api_key", "API_KEY", "APP_SECURITY_API_KEY")
	_ = v.BindEnv("identity.url", "IDENTITY_API_URL", "APP_IDENTITY_URL")
	_ = v.BindEnv("identity.api_key", "IDENTITY_API_KEY", "APP_IDENTITY_API_KEY")
	_ = v.BindEnv("email.api_key", "SENDGRID_API_KEY", "APP_EMAIL_API_KEY")
	_ = v.BindEnv("email.smtp.host", "SMTP_HOST", "APP_EMAIL_SMTP_HOST")
	_ = v.BindEnv("email.smtp.port", "SMTP_PORT", "APP_EMAIL_SMTP_PORT")
	_ = v.BindEnv("email.smtp.user", "SMTP_USER", "APP_EMAIL_SMTP_USER")
	_ = v.BindEnv("email.smtp.password", "SMTP_PASSWORD", "APP_EMAIL_SMTP_PASSWORD")
	_ = v.BindEnv("app.environment", "APP_ENVIRONMENT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL", "APP_LOGGING_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gic")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 5000)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.body_limit", 8*1024*1024)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/gic.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("queue.provider", "none")
	v.SetDefault("queue.subject_prefix", "gic")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.timeout", 5*time.Second)
	v.SetDefault("rabbitmq.exchange", "gic.events")

	v.SetDefault("opentelemetry.service_name", "gic")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", 60*time.Second)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("identity.timeout", 10*time.Second)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "no-reply@solutiontech.cl")
	v.SetDefault("email.from_name", "SolutionTech")
	v.SetDefault("email.smtp.host", "smtp.gmail.com")
	v.SetDefault("email.smtp.port", 587)

	v.SetDefault("customer.phone_region", "CL")
	v.SetDefault("customer.export_dir", "exports")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Queue.Provider {
	case "", "none", "nats", "rabbitmq":
	default:
		return fmt.Errorf("config: unsupported queue.provider %q", c.Queue.Provider)
	}
	switch c.Email.Provider {
	case "", "log", "sendgrid", "smtp":
	default:
		return fmt.Errorf("config: unsupported email.provider %q", c.Email.Provider)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http.port %d out of range", c.HTTP.Port)
	}
	return nil
}

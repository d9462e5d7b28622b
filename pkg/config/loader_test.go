package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "app:\n  name: gic-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "gic-test", cfg.App.Name)
	assert.Equal(t, 5000, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/gic.db", cfg.Database.Path)
	assert.Equal(t, "none", cfg.Queue.Provider)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, "CL", cfg.Customer.PhoneRegion)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-API-Key")
}

func TestLoadFile_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 8088
database:
  driver: sqlite
  path: /tmp/customers.db
identity:
  timeout: 3s
`)
	t.Setenv("DATABASE_PATH", "/var/lib/gic/gic.db")
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("APP_CUSTOMER_PHONE_REGION", "AR")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.HTTP.Port)
	assert.Equal(t, "/var/lib/gic/gic.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.Security.APIKey)
	assert.Equal(t, "AR", cfg.Customer.PhoneRegion)
	assert.Equal(t, 3*time.Second, cfg.Identity.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "database.url is required"},
		{"postgres with url", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.URL = "postgres://localhost/gic"
		}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database.driver"},
		{"unknown queue", func(c *Config) { c.Queue.Provider = "kafka" }, "unsupported queue.provider"},
		{"unknown email", func(c *Config) { c.Email.Provider = "ses" }, "unsupported email.provider"},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				HTTP:     HTTPConfig{Port: 5000},
				Database: DatabaseConfig{Driver: "sqlite"},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

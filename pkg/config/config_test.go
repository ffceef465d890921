package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "event-service", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "registration-events", cfg.Kafka.RegistrationsTopic)
	assert.True(t, cfg.Registration.EnforceCapacity)
	assert.Equal(t, 30*time.Second, cfg.Cache.AvailabilityTTL)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REGISTRATION_ENFORCE_CAPACITY", "false")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Registration.EnforceCapacity)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=sessions\nDATABASE_DBNAME=sessions_db\n"), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sessions", cfg.App.Name)
	assert.Equal(t, "sessions_db", cfg.Database.DBName)

	_, err = LoadWithPath(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Name: "event-service"},
			Server:   ServerConfig{Port: 8080},
			Storage:  StorageConfig{Driver: StorageDriverPostgres},
			Database: DatabaseConfig{Host: "localhost", DBName: "events_db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "memory without db", mutate: func(c *Config) {
			c.Storage.Driver = StorageDriverMemory
			c.Database = DatabaseConfig{}
		}},
		{name: "negative max quantity", mutate: func(c *Config) { c.Registration.MaxQuantity = -1 }, wantErr: true},
		{name: "sample ratio out of range", mutate: func(c *Config) { c.OTel.SampleRatio = 2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package config_test

import (
	"testing"
	"time"

	"plastikhb/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 8, cfg.MaxUploadFiles)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Greater(t, cfg.BodyLimit(), 8*5*1024*1024)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "SQLite")
	v.Set("DATABASE_DSN", "file::memory:")
	v.Set("MAX_UPLOAD_FILES", 3)
	v.Set("SESSION_TTL", "2h")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3, cfg.MaxUploadFiles)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"driver":     func(v *viper.Viper) { v.Set("DB_DRIVER", "mysql") },
		"dsn":        func(v *viper.Viper) { v.Set("DATABASE_DSN", "") },
		"upload dir": func(v *viper.Viper) { v.Set("UPLOAD_DIR", "") },
		"max files":  func(v *viper.Viper) { v.Set("MAX_UPLOAD_FILES", 0) },
		"secret":     func(v *viper.Viper) { v.Set("JWT_SECRET", "") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			mutate(v)
			_, err := config.FromViper(v)
			assert.Error(t, err)
		})
	}
}

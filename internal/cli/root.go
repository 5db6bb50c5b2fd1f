package cli

import (
	"context"
	"fmt"
	"os"

	"plastikhb/internal/config"
	"plastikhb/internal/database"
	"plastikhb/internal/repositories"
	"plastikhb/internal/services"
	"plastikhb/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

const serviceName = "plastikhb"

// NewRootCommand builds the plastikhb command tree. Flags override the environment and the
// config file.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Plastik HB catalog and site content backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("db-driver", "", "Database driver (postgres, sqlite)")
	root.PersistentFlags().String("dsn", "", "Database connection string")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	_ = v.BindPFlag("DB_DRIVER", root.PersistentFlags().Lookup("db-driver"))
	_ = v.BindPFlag("DATABASE_DSN", root.PersistentFlags().Lookup("dsn"))
	_ = v.BindPFlag("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCommand(v))
	root.AddCommand(newMigrateCommand(v))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration, initializes logging and opens the migrated database.
func setup(v *viper.Viper) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(serviceName, cfg.LogLevel)

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("database ready")
	return cfg, db, nil
}

// seedAdmin creates the configured admin account on an empty users table.
func seedAdmin(ctx context.Context, cfg *config.Config, auth *services.AuthService) error {
	created, err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	if !created && cfg.AdminEmail == "" {
		logger.Debug().Msg("no admin account configured")
	}
	return nil
}

func newAuthService(cfg *config.Config, db *gorm.DB) *services.AuthService {
	return services.NewAuthService(
		repositories.NewGORMUserRepository(db),
		repositories.NewGORMSessionRepository(db),
		cfg.JWTSecret,
		cfg.SessionTTL,
	)
}

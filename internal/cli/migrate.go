package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(v)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			return seedAdmin(cmd.Context(), cfg, newAuthService(cfg, db))
		},
	}
}

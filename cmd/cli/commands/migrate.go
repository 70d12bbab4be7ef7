package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Database.RunMigrations(app.Ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Println("\n✓ Migrations applied.")
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

func CreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if username == "" {
				username = cfg.AdminUsername
			}
			if password == "" {
				password = cfg.AdminPassword
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			auth := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTExpirationHours, cfg.JWTRefreshExpirationHours, nil)
			created, err := auth.EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created.\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "User %q already exists.\n", username)
			}
			return nil
		},
	}
	cmd.Flags().String("username", "", "admin username (defaults to ADMIN_USERNAME)")
	cmd.Flags().String("password", "", "admin password (defaults to ADMIN_PASSWORD)")
	return cmd
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/services"
)

func createAdminCmd() *cobra.Command {
	var email, password, firstName, lastName, role string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin panel account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, services.NopPublisher{})
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := a.auth.CreateAdmin(context.Background(), email, password, firstName, lastName, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %d <%s> with role %s\n", admin.ID, admin.Email, admin.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&password, "password", "", "admin password, at least 8 characters (required)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "role", "admin", "role")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

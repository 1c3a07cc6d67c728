package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront/telegram"
)

// initDataCmd prints signed init data so the API can be exercised without
// opening the Mini App inside Telegram.
func initDataCmd() *cobra.Command {
	var (
		user telegram.WebAppUser
		age  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "initdata",
		Short: "Print a signed Telegram init data string for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.TelegramBotToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is required")
			}
			raw, err := telegram.SignUser(cfg.TelegramBotToken, user, time.Now().Add(-age))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().Int64Var(&user.ID, "user-id", 0, "Telegram user id (required)")
	cmd.Flags().StringVar(&user.FirstName, "first-name", "Test", "first name")
	cmd.Flags().StringVar(&user.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&user.Username, "username", "", "username")
	cmd.Flags().StringVar(&user.LanguageCode, "language", "en", "language code")
	cmd.Flags().BoolVar(&user.IsPremium, "premium", false, "premium flag")
	cmd.Flags().DurationVar(&age, "age", 0, "how old auth_date should be")
	cmd.MarkFlagRequired("user-id")
	return cmd
}

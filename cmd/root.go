// Package cmd holds the storefront command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"storefront/config"
)

var Version = "dev"

var configPath string

func Execute() {
	// Clients expect JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Telegram Mini App storefront backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("STOREFRONT_CONFIG"),
		"optional YAML config file; environment variables take precedence")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(initDataCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath)
}

package cmd

import (
	"os"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "forcegate",
	Short: "forcegate CLI",
	Long:  `forcegate — server-side OAuth gateway for the Salesforce REST API`,
}

func Execute(c *config.Config) {
	cfg = c
	logger.Info("Starting CLI", "env", cfg.AppEnv)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("CLI error", "error", err)
		os.Exit(1)
	}
}

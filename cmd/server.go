package cmd

import (
	"os"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/server"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"start"},
	Short:   "Start the forcegate gateway",
	Run: func(_ *cobra.Command, _ []string) {
		if err := config.Validate(cfg); err != nil {
			logger.Error("Invalid configuration", "error", err)
			os.Exit(1)
		}
		if err := server.Start(cfg); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

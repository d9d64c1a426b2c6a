package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "budgetwatch",
	Short: "Budget polling daemon",
	Long:  "Polls a remote budget on a fixed interval and publishes a resilient merged snapshot.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(homeDir, ".budgetwatch", "config.toml")

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", defaultConfig, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

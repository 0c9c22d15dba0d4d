package main

import (
	"fmt"
	"os"

	"github.com/goodtune/habitledger/internal/config"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "habitledger",
	Short: "habitledger - daily session tracker with rewards, streaks and achievements",
	Long: `habitledger tracks up to four daily sessions of a habit. Every completed
session earns a small reward; streaks, notes and achievements are kept in a
local store.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to status command when no subcommand is provided
		return runStatus(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

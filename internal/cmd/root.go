// Package cmd implements the CLI (Command Line Interface) of the application.
//
// serve - Start the moderation HTTP service
// migrate up - Apply all schema migrations
// migrate down - Revert all schema migrations
// challenge decide - Accept or reject a pending challenge
// challenge adjudicate - Accept or reject a filed appeal
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "moderation",
	Short: "Challenge and appeal service for user generated content",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	rootCmd.Version = BuildVersion
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is moderation.yml in $HOME or the working directory)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(challengeCmd())
}

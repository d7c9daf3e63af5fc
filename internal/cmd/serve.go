package cmd

import (
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the moderation web service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			if errInit := app.Init(ctx); errInit != nil {
				return errInit
			}

			return app.Serve(ctx)
		},
	}
}

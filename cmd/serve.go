package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridwalk/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning HTTP API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		return svc.Run(ctx)
	})
}

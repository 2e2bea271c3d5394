package main

import (
	"github.com/spf13/cobra"

	"dharma/internal/serverrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var preload bool
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return serverrun.Run(cmd.Context(), cfg, serverrun.Options{
				LogLevel:     ctx.logLevel(),
				Development:  development,
				PreloadModel: preload,
			})
		},
	}

	cmd.Flags().BoolVar(&preload, "preload", true, "Resolve the transcription engine before accepting requests")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}

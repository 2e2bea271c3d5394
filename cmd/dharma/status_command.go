package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dharma/internal/deps"
	"dharma/internal/preflight"
	"dharma/internal/transcripts"
)

type statusReport struct {
	Dependencies []deps.Status      `json:"dependencies"`
	Directories  []preflight.Result `json:"directories"`
	DatabasePath string             `json:"database_path"`
	Transcripts  int                `json:"transcripts"`
	StoreError   string             `json:"store_error,omitempty"`
	DownloadsDir string             `json:"downloads_dir"`
	Engine       string             `json:"engine"`
	Model        string             `json:"model"`
	Ready        bool               `json:"ready"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check external tools, directories, and the transcript store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report := statusReport{
				Dependencies: preflight.CheckSystemDeps(cfg),
				Directories:  preflight.RunAll(cmd.Context(), cfg),
				DatabasePath: cfg.Paths.DatabasePath,
				DownloadsDir: cfg.Paths.DownloadsDir,
				Engine:       cfg.Transcriber.Engine,
				Model:        cfg.Transcriber.Model,
			}
			if err := ctx.withStore(func(store *transcripts.Store) error {
				if err := store.Ping(cmd.Context()); err != nil {
					return err
				}
				count, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				report.Transcripts = count
				return nil
			}); err != nil {
				report.StoreError = err.Error()
			}
			report.Ready = deps.AllRequiredAvailable(report.Dependencies) &&
				len(preflight.Failed(report.Directories)) == 0 &&
				report.StoreError == ""

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	depRows := make([][]string, 0, len(report.Dependencies))
	for _, dep := range report.Dependencies {
		state := colorCell("OK", text.FgGreen, colorize)
		if !dep.Available {
			if dep.Optional {
				state = colorCell("MISSING (optional)", text.FgYellow, colorize)
			} else {
				state = colorCell("MISSING", text.FgRed, colorize)
			}
		}
		depRows = append(depRows, []string{dep.Name, dep.Command, state, strings.TrimSpace(dep.Detail)})
	}
	fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "Status", "Detail"}, depRows, nil, colorize))

	dirRows := make([][]string, 0, len(report.Directories))
	for _, dir := range report.Directories {
		state := colorCell("OK", text.FgGreen, colorize)
		if !dir.Passed {
			state = colorCell("FAIL", text.FgRed, colorize)
		}
		dirRows = append(dirRows, []string{dir.Name, state, dir.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, dirRows, nil, colorize))

	store := fmt.Sprintf("%d transcriptions", report.Transcripts)
	if report.StoreError != "" {
		store = "unavailable: " + report.StoreError
	}
	fmt.Fprintf(out, "Database:   %s (%s)\n", report.DatabasePath, store)
	fmt.Fprintf(out, "Downloads:  %s\n", report.DownloadsDir)
	fmt.Fprintf(out, "Engine:     %s (model %s)\n", report.Engine, report.Model)
	fmt.Fprintf(out, "Ready:      %s\n", yesNo(report.Ready))
}

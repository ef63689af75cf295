package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/celosnet/ugantt/pkg/buildinfo"
)

// Execute runs the ugantt CLI and returns an error if any command
// fails. Logging defaults to info level on stderr; --verbose switches
// to debug. The configured logger is attached to the command context.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "ugantt",
		Short:        "ugantt renders project timelines as Gantt charts",
		Long:         `ugantt reads a YAML project description, resolves symbolic time references between rows, and renders the timeline as a PDF, SVG, or JSON chart.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}

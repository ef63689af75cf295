package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celosnet/ugantt/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file (single format) or base path (multiple)
	formats []string // output formats: "pdf", "svg", "json"
	theme   string   // TOML theme file
	strict  bool     // treat unresolved rows as a command failure
}

// newRenderCmd creates the render command. By default it writes a PDF
// next to the input file; --format selects other sinks, comma-separated
// for several at once.
func newRenderCmd() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a project document to chart files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): pdf (default), svg, json (comma-separated)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "TOML theme file overriding the default style")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any row does not resolve")

	return cmd
}

// parseFormats parses the --format flag; empty defaults to ["pdf"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPDF}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input
// paths. A known format extension on the output is stripped so that
// "chart.svg" with --format svg,json produces chart.svg and chart.json.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	runner := pipeline.NewRunner(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Path:    input,
		Formats: opts.formats,
		Theme:   opts.theme,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if len(opts.formats) == 1 {
		path := opts.output
		if path == "" {
			path = basePath("", input) + "." + opts.formats[0]
		}
		if err := writeArtifact(path, result.Artifacts[opts.formats[0]]); err != nil {
			return err
		}
		logger.Infof("Generated %s", path)
	} else {
		base := basePath(opts.output, input)
		for _, format := range opts.formats {
			path := base + "." + format
			if err := writeArtifact(path, result.Artifacts[format]); err != nil {
				return err
			}
			logger.Infof("Generated %s", path)
		}
	}

	p.done(fmt.Sprintf("Rendered %d row(s)", len(result.Layout.Slots)))

	if result.Failed() {
		logger.Warnf("%d row(s) failed to resolve and were left out", failedRows(result))
		if opts.strict {
			return fmt.Errorf("%s: unresolved rows", input)
		}
	}
	return nil
}

func failedRows(result *pipeline.Result) int {
	n := 0
	for _, rr := range result.Resolution.Rows {
		if rr.Err != nil {
			n++
		}
	}
	return n
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

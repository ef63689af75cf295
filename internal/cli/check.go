package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/celosnet/ugantt/pkg/project"
	"github.com/celosnet/ugantt/pkg/resolve"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	rowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// newCheckCmd creates the check command: resolve a document and report
// every diagnostic without rendering anything. Exits non-zero when a
// row fails to resolve, or with --strict on warnings too.
func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a project document and report reference problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, input string, strict bool) error {
	logger := loggerFromContext(ctx)

	doc, err := project.Load(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d rows", input, len(doc.Rows))

	resolver, err := resolve.New(doc)
	if err != nil {
		return err
	}
	res := resolver.Resolve()

	printReport(out, doc, res)

	errs, warns := countDiagnostics(res)
	switch {
	case errs > 0:
		return fmt.Errorf("%s: %d error(s)", input, errs)
	case strict && warns > 0:
		return fmt.Errorf("%s: %d warning(s) with --strict", input, warns)
	}
	return nil
}

func printReport(out io.Writer, doc *project.Document, res *resolve.Result) {
	fmt.Fprintf(out, "%s  %s\n\n",
		lipgloss.NewStyle().Bold(true).Render(doc.Project),
		faintStyle.Render(fmt.Sprintf("%s x %d from %s", doc.Unit, doc.Length,
			doc.Start.Format("2006-01-02"))))

	for _, d := range res.Diagnostics {
		badge := warnStyle.Render("WARN")
		if d.Severity == resolve.SeverityError {
			badge = errStyle.Render("FAIL")
		}
		row := d.Row
		if row == "" {
			row = "(unnamed row)"
		}
		fmt.Fprintf(out, "  %s  %s  %s\n", badge, rowStyle.Render(row), d.Message)
	}

	errs, warns := countDiagnostics(res)
	resolved := len(res.Points)
	switch {
	case errs == 0 && warns == 0:
		fmt.Fprintf(out, "%s %d point(s) resolved, no problems found\n",
			okStyle.Render("OK"), resolved)
	default:
		fmt.Fprintf(out, "\n%d point(s) resolved, %d error(s), %d warning(s)\n",
			resolved, errs, warns)
	}
}

func countDiagnostics(res *resolve.Result) (errs, warns int) {
	for _, d := range res.Diagnostics {
		if d.Severity == resolve.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

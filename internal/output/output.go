// Package output renders calculation reports and status lines for the CLI.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Aman-CERP/benchgate/internal/history"
	"github.com/Aman-CERP/benchgate/internal/regression"
)

// Section headers and verdicts printed by calculate.
const (
	AllCalculationsHeader = ":: All Calculations ::"
	RegressionsHeader     = ":: Regressions Found ::"
	NoRegressionsMessage  = "congrats! no regressions :)"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer without colors.
func New(out io.Writer) *Writer {
	return &Writer{out: out, styles: NoColorStyles()}
}

// NewAuto creates a Writer that colors output only when out is a terminal
// and NO_COLOR is unset.
func NewAuto(out io.Writer) *Writer {
	return &Writer{out: out, styles: GetStyles(!IsTTY(out) || DetectNoColor())}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// RenderCalculations prints every calculation under the all-calculations
// header.
func (w *Writer) RenderCalculations(calcs []regression.Calculation) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(AllCalculationsHeader))
	_, _ = fmt.Fprintln(w.out)
	if len(calcs) == 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render("(no calculations)"))
		_, _ = fmt.Fprintln(w.out)
		return
	}
	_, _ = fmt.Fprintln(w.out, w.calculationTable(calcs))
	_, _ = fmt.Fprintln(w.out)
}

// RenderSummary prints the verdict and, when there are regressions, the
// regressed calculations. It returns the number of regressions.
func (w *Writer) RenderSummary(calcs []regression.Calculation) int {
	flagged := regression.Flagged(calcs)
	if len(flagged) == 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Success.Render(NoRegressionsMessage))
		return 0
	}

	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(RegressionsHeader))
	_, _ = fmt.Fprintln(w.out)
	_, _ = fmt.Fprintln(w.out, w.calculationTable(flagged))
	_, _ = fmt.Fprintln(w.out)
	return len(flagged)
}

// RenderRuns prints a history listing.
func (w *Writer) RenderRuns(runs []history.RunSummary) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render("No runs recorded yet."))
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Metrics),
			strconv.Itoa(r.Regressions),
			r.ResultsDir,
		})
	}
	t := w.newTable(func(row, col int) lipgloss.Style {
		if row >= 0 && col == 3 && runs[row].Regressions > 0 {
			return w.styles.Error
		}
		return lipgloss.Style{}
	}).Headers("RUN", "CREATED", "METRICS", "REGRESSIONS", "RESULTS").Rows(rows...)
	_, _ = fmt.Fprintln(w.out, t.Render())
}

func (w *Writer) calculationTable(calcs []regression.Calculation) string {
	rows := make([][]string, 0, len(calcs))
	for _, c := range calcs {
		verdict := "ok"
		if c.Regression {
			verdict = "REGRESSION"
		}
		rows = append(rows, []string{
			c.Metric,
			formatFloat(c.Data.Baseline),
			formatFloat(c.Data.Dev),
			formatFloat(c.Data.Difference),
			formatFloat(c.Data.Threshold),
			verdict,
		})
	}

	t := w.newTable(func(row, col int) lipgloss.Style {
		if row >= 0 && col == 5 {
			if calcs[row].Regression {
				return w.styles.Error
			}
			return w.styles.Success
		}
		return lipgloss.Style{}
	}).Headers("METRIC", "BASELINE", "DEV", "RATIO", "THRESHOLD", "RESULT").Rows(rows...)
	return t.Render()
}

// newTable builds a bordered table; cellStyle supplies per-cell colors
// for data rows and is merged over the base cell padding.
func (w *Writer) newTable(cellStyle func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(w.styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return w.styles.Header.Inherit(w.styles.Cell)
			}
			return cellStyle(row, col).Inherit(w.styles.Cell)
		})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

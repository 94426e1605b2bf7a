package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gnolang/witness/internal/validate"
)

var (
	okStyle      = color.New(color.FgGreen, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	noStyle      = color.New(color.FgWhite)
)

// printSummary renders the validation counters as a table followed by the overall verdict.
func printSummary(w io.Writer, stats validate.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.AppendHeader(table.Row{"Verdict", "Records"})
	t.AppendRows([]table.Row{
		{okStyle.Sprint(validate.Confirmed), stats.Confirmed},
		{warningStyle.Sprint(validate.Unconfirmed), stats.Unconfirmed},
		{errorStyle.Sprint(validate.Refuted), stats.Refuted},
		{errorStyle.Sprint(validate.ParseError), stats.ParseError},
		{noStyle.Sprint("unchecked"), stats.Unchecked},
		{noStyle.Sprint("unsupported"), stats.Unsupported},
		{noStyle.Sprint("disabled"), stats.Disabled},
	})
	t.AppendFooter(table.Row{"Total", stats.Total()})
	t.Render()

	switch {
	case stats.Refuted > 0:
		fmt.Fprintln(w, errorStyle.Sprint("witness refuted"))
	case stats.ParseError > 0:
		fmt.Fprintln(w, errorStyle.Sprint("witness has unreadable records"))
	case stats.Unconfirmed > 0:
		fmt.Fprintln(w, warningStyle.Sprint("witness partially confirmed"))
	default:
		fmt.Fprintln(w, okStyle.Sprint("witness confirmed"))
	}
}

package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	return table
}

// RequestTable renders saved request definitions.
func RequestTable(w io.Writer, defs []chain.RequestDefinition) {
	table := newTable(w, []string{"Name", "Method", "URL"})
	for _, def := range defs {
		table.Append([]string{def.Name, def.Method, def.URL})
	}
	table.Render()
}

// ChainTable renders saved chains with their step counts.
func ChainTable(w io.Writer, chains []store.Chain) {
	table := newTable(w, []string{"Name", "Steps", "Rules"})
	for _, c := range chains {
		table.Append([]string{c.Name, fmt.Sprintf("%d", len(c.Requests)), fmt.Sprintf("%d", len(c.Rules))})
	}
	table.Render()
}

// SampleTable renders recorded metric samples.
func SampleTable(w io.Writer, samples []metrics.Sample) {
	table := newTable(w, []string{"Request", "Method", "Status", "Duration", "Executed"})
	for _, s := range samples {
		table.Append([]string{
			s.RequestName,
			s.Method,
			fmt.Sprintf("%d", s.StatusCode),
			fmt.Sprintf("%.0fms", s.DurationSeconds*1000),
			s.ExecutedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

// HistoryTable renders execution history entries.
func HistoryTable(w io.Writer, entries []store.HistoryEntry) {
	table := newTable(w, []string{"Kind", "Name", "Status", "Duration", "Executed"})
	for _, e := range entries {
		status := fmt.Sprintf("%d", e.StatusCode)
		if e.StatusCode == 0 {
			status = "error"
		}
		table.Append([]string{
			e.Kind,
			e.Name,
			status,
			fmt.Sprintf("%.0fms", e.DurationSeconds*1000),
			e.ExecutedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

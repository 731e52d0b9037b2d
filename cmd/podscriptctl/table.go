package main

import (
	"sort"
	"strconv"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderSummary(s *persistence.RunSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRows([]table.Row{
		{"Run", s.RunID},
		{"Job", s.Job},
		{"Lock skipped", strconv.FormatBool(s.LockSkipped)},
		{"Candidates", s.Candidates},
		{"Processed", s.Processed},
		{"Succeeded", s.Succeeded},
		{"Fallback invoked", s.FallbackInvoked},
		{"Failed", s.Failed},
		{"API calls", s.APICalls},
		{"Credits", s.Credits},
		{"Elapsed", s.Elapsed.String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft}})
	return tw.Render()
}

func renderCategories(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Failed"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, m[k]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft}})
	return tw.Render()
}

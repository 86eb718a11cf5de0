package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/models"
)

func printReport(w io.Writer, report models.Report) {
	fmt.Fprintf(w, "%d entries.\n", report.Entries)
	fmt.Fprintf(w, "Last entry: %s\n", report.FirstTitle)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Item", "Value"})
	tw.AppendRows([]table.Row{
		{"Feed", report.FeedURL},
		{"Archived", report.ArchivedAt.Format("2006-01-02")},
		{"Downloaded", strconv.Itoa(report.Downloaded)},
		{"Cached", strconv.Itoa(report.Cached)},
		{"No enclosure", strconv.Itoa(report.NoEnclosure)},
		{"Feed snapshot", report.RawPath},
		{"Record", report.RecordPath},
		{"Hashes", report.HashesPath},
	})
	tw.Render()
}

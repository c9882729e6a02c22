package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"ghtool/pkg/github"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

// validateOutputFormat checks the --output flag value
func validateOutputFormat(format string) error {
	switch format {
	case outputJSON, outputTable:
		return nil
	default:
		return newUsageError("invalid output format %q: must be %s or %s", format, outputJSON, outputTable)
	}
}

// renderSummaries writes the repositories in the requested format.
// Callers only render once the whole result is known, so failures leave w untouched.
func renderSummaries(w io.Writer, format string, summaries []github.RepositorySummary) error {
	if summaries == nil {
		summaries = []github.RepositorySummary{}
	}

	var err error
	switch format {
	case outputTable:
		err = writeTable(w, summaries)
	default:
		err = writeJSON(w, summaries)
	}
	if err != nil {
		return newInternalError("failed to write output", err)
	}
	return nil
}

// writeJSON pretty prints the summaries as a JSON array
func writeJSON(w io.Writer, summaries []github.RepositorySummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(summaries)
}

// writeTable renders the summaries as a text table
func writeTable(w io.Writer, summaries []github.RepositorySummary) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Full Name", "URL", "Pushed At", "Language"})
	table.SetAutoWrapText(false)

	for _, s := range summaries {
		table.Append(s.Columns())
	}
	table.Render()

	if _, err := fmt.Fprintf(w, "%d repositories\n", len(summaries)); err != nil {
		return err
	}
	return nil
}

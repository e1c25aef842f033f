package table

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NoResultsNotice is shown instead of a table when a query returns no rows.
const NoResultsNotice = "No results found."

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected table, csv, json, md or html)", raw)
	}
}

type Grid struct {
	Headers []string
	Cells   [][]string
}

// Render derives the column headers from the first row only. Later rows are
// projected onto those headers: missing keys become empty cells and extra
// keys are dropped. The boolean is false when there is nothing to show.
func Render(rows []Row) (Grid, bool) {
	if len(rows) == 0 {
		return Grid{}, false
	}

	headers := rows[0].Keys()
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(headers))
		for j, header := range headers {
			if value, ok := row.Get(header); ok {
				line[j] = value.String()
			}
		}
		cells = append(cells, line)
	}
	return Grid{Headers: headers, Cells: cells}, true
}

// Write renders rows in the requested format. Empty results print the
// no-results notice for every format except json, which prints [].
func Write(w io.Writer, rows []Row, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, rows)
	}

	grid, ok := Render(rows)
	if !ok {
		_, err := fmt.Fprintln(w, NoResultsNotice)
		return err
	}

	t := prettytable.NewWriter()
	style := prettytable.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	header := make(prettytable.Row, len(grid.Headers))
	for i, name := range grid.Headers {
		header[i] = name
	}
	t.AppendHeader(header)
	for _, line := range grid.Cells {
		row := make(prettytable.Row, len(line))
		for i, value := range line {
			row[i] = value
		}
		t.AppendRow(row)
	}

	var out string
	switch format {
	case FormatCSV:
		out = t.RenderCSV()
	case FormatMarkdown:
		out = t.RenderMarkdown()
	case FormatHTML:
		out = t.RenderHTML()
	default:
		out = t.Render()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func writeJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

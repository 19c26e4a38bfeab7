package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/apiform/internal/dataset"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is aligned columns or key-value lines (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is a boxed table.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON, "jsonl":
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|jsonl|table|yaml)")
	}
}

// IsStructured reports whether the format is meant for machines.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatNDJSON || f == FormatYAML
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// PrintDataset prints the visible columns of ds. Text and table output keep
// the source column order; the structured formats and any --query or
// --jsonpath work on the visible fields as records.
func (p *Printer) PrintDataset(ctx context.Context, ds *dataset.Dataset, vis dataset.Visibility) error {
	if p.format.IsStructured() || QueryFromContext(ctx) != "" || JSONPathFromContext(ctx) != "" {
		return p.Print(ctx, dataset.Records(ds, vis))
	}
	return p.Print(ctx, dataset.Project(ds, vis))
}

// Print outputs data in the configured format.
func (p *Printer) Print(ctx context.Context, data any) error {
	if data == nil {
		return nil
	}

	if path := JSONPathFromContext(ctx); path != "" {
		selected, err := applyJSONPath(data, path)
		if err != nil {
			return err
		}
		data = selected
	}
	if FailEmptyFromContext(ctx) && isEmptyResult(data) {
		return clierrors.NewUserError("no results", "Remove --fail-empty to allow empty output")
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data)
	case FormatNDJSON:
		return p.printNDJSON(ctx, data)
	case FormatYAML:
		return p.printYAML(ctx, data)
	case FormatTable:
		return p.printTable(ctx, data)
	case FormatText:
		return p.printText(ctx, data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(ctx context.Context, data any) error {
	if query := QueryFromContext(ctx); query != "" {
		filtered, err := queryValue(query, data)
		if err != nil {
			return err
		}
		data = filtered
	}
	normalized, err := toGojqValue(data)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(normalized)
}

// printText renders tabular data as aligned columns and everything else as
// "key: value" lines.
func (p *Printer) printText(ctx context.Context, data any) error {
	if query := QueryFromContext(ctx); query != "" {
		filtered, err := queryValue(query, data)
		if err != nil {
			return err
		}
		if filtered == nil {
			return nil
		}
		data = filtered
	}

	if t, ok := tabulate(data); ok {
		return p.printTabwriter(t)
	}
	if fields, ok := keyValues(data); ok {
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		for _, kv := range fields {
			_, _ = fmt.Fprintf(tw, "%s:\t%s\n", kv.key, oneLine(kv.val))
		}
		return tw.Flush()
	}
	_, err := fmt.Fprintf(p.w, "%s\n", scalarText(data))
	return err
}

func (p *Printer) printTabwriter(t dataset.Table) error {
	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.Headers, "\t")))
	}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = oneLine(cell)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// printTable draws a go-pretty table. Multi-line cells stay multi-line.
func (p *Printer) printTable(ctx context.Context, data any) error {
	if query := QueryFromContext(ctx); query != "" {
		filtered, err := queryValue(query, data)
		if err != nil {
			return err
		}
		data = filtered
	}

	t, ok := tabulate(data)
	if !ok {
		fields, isObject := keyValues(data)
		if !isObject {
			return errors.New("table format requires a list or an object")
		}
		t = dataset.Table{Headers: []string{"key", "value"}}
		for _, kv := range fields {
			t.Rows = append(t.Rows, []string{kv.key, kv.val})
		}
	}
	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return nil
	}

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, len(r))
		for j, cell := range r {
			row[j] = cell
		}
		rows[i] = row
	}

	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	tw.Style().Options.DrawBorder = false

	_, err := io.WriteString(p.w, tw.Render()+"\n")
	return err
}

// oneLine keeps aligned text output on one line per row.
func oneLine(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return strings.Join(strings.Split(s, "\n"), "; ")
}

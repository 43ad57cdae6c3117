// Package output renders analysis results as json, yaml, csv or an aligned
// text table.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Formatter turns a result value into bytes.
type Formatter interface {
	Format(data any, pretty bool) ([]byte, error)
}

// Tabular is implemented by results that know their own column layout.
// Values that are not Tabular are flattened into key/value rows.
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

// NewFormatter returns the formatter for name, or an error for unknown names.
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "csv":
		return &CSVFormatter{}, nil
	case "table":
		return &TableFormatter{}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", name)
}

// JSONFormatter emits JSON. NaN and infinities are replaced by zero.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, pretty bool) ([]byte, error) {
	clean := Sanitize(data)

	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(clean, "", "  ")
	} else {
		out, err = json.Marshal(clean)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return append(out, '\n'), nil
}

// YAMLFormatter emits YAML using the json field names of the result.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Sanitize(data)); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVFormatter emits a header row followed by one row per record.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any, pretty bool) ([]byte, error) {
	columns, rows, err := tabulate(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// TableFormatter emits an aligned table with title-cased headers.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any, pretty bool) ([]byte, error) {
	columns, rows, err := tabulate(data)
	if err != nil {
		return nil, err
	}

	title := cases.Title(language.English)
	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = title.String(strings.NewReplacer("_", " ", "-", " ").Replace(c))
		rules[i] = strings.Repeat("-", len(headers[i]))
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	if pretty {
		fmt.Fprintln(tw, strings.Join(rules, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write table: %w", err)
	}
	return buf.Bytes(), nil
}

func tabulate(data any) ([]string, [][]string, error) {
	if t, ok := data.(Tabular); ok {
		return t.Columns(), t.Rows(), nil
	}

	// round-trip through json so struct tags name the keys
	raw, err := json.Marshal(Sanitize(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to flatten result: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, nil, fmt.Errorf("failed to flatten result: %w", err)
	}

	flat := map[string]string{}
	flatten("", generic, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, flat[k]})
	}
	return []string{"key", "value"}, rows, nil
}

func flatten(prefix string, v any, out map[string]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flatten(join(k), child, out)
		}
	case []any:
		for i, child := range val {
			flatten(join(fmt.Sprint(i)), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(val)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
	formatYAML  = "yaml"
)

func validOutputFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatCSV, formatYAML:
		return nil
	}
	return fmt.Errorf("invalid output format %q (valid: table, json, csv, yaml)", format)
}

// printTable renders rows in the requested output format. For json and
// yaml, the rows are re-keyed by the header names.
func printTable(format string, headers []string, rows [][]any) error {
	if err := validOutputFormat(format); err != nil {
		return err
	}

	switch format {
	case formatJSON, formatYAML:
		records := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			record := make(map[string]any, len(headers))
			for i, h := range headers {
				if i < len(row) {
					record[h] = row[i]
				}
			}
			records = append(records, record)
		}
		if format == formatJSON {
			return printJSON(records)
		}
		return printYAML(records)
	}

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	headerRow := make(table.Row, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	w.AppendHeader(headerRow)
	for _, row := range rows {
		w.AppendRow(table.Row(row))
	}
	if format == formatCSV {
		w.RenderCSV()
	} else {
		w.SetStyle(table.StyleLight)
		w.Render()
	}
	return nil
}

// printRecords renders a list of property records with the given columns.
// For json and yaml, the property values are kept as-is; in table formats,
// nested values are rendered compactly.
func printRecords(format string, headers []string, records []zhmc.Properties) error {
	if err := validOutputFormat(format); err != nil {
		return err
	}

	switch format {
	case formatJSON, formatYAML:
		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			m := make(map[string]any, len(headers))
			for _, h := range headers {
				m[h] = rec[h]
			}
			out = append(out, m)
		}
		if format == formatJSON {
			return printJSON(out)
		}
		return printYAML(out)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, 0, len(headers))
		for _, h := range headers {
			row = append(row, formatValue(rec[h]))
		}
		rows = append(rows, row)
	}
	return printTable(format, headers, rows)
}

// sortRecords sorts property records by the given property names, with
// decreasing sort priority. Every record must have all sort properties.
func sortRecords(records []zhmc.Properties, sortProps []string) error {
	for _, name := range sortProps {
		if name == "" {
			continue
		}
		for _, rec := range records {
			if _, ok := rec[name]; !ok {
				return fmt.Errorf("invalid sort property: %s", name)
			}
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, name := range sortProps {
			if name == "" {
				continue
			}
			vi := fmt.Sprint(records[i][name])
			vj := fmt.Sprint(records[j][name])
			if vi != vj {
				return vi < vj
			}
		}
		return false
	})
	return nil
}

// remainingKeys returns the property names that occur in the records but
// are not yet listed in headers, sorted.
func remainingKeys(headers []string, records []zhmc.Properties) []string {
	shown := make(map[string]bool, len(headers))
	for _, h := range headers {
		shown[h] = true
	}
	extra := map[string]bool{}
	for _, rec := range records {
		for name := range rec {
			if !shown[name] {
				extra[name] = true
			}
		}
	}
	keys := make([]string, 0, len(extra))
	for name := range extra {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// printProperties renders a property map as a two-column name/value table,
// or as a document in json/yaml formats. Property names are sorted.
func printProperties(format string, props zhmc.Properties, hide []string) error {
	if err := validOutputFormat(format); err != nil {
		return err
	}

	switch format {
	case formatJSON:
		return printJSON(props)
	case formatYAML:
		return printYAML(props)
	}

	hidden := make(map[string]bool, len(hide))
	for _, h := range hide {
		hidden[h] = true
	}

	rows := make([][]any, 0, len(props))
	for _, name := range props.SortedKeys() {
		value := props[name]
		if hidden[name] {
			value = "... (hidden)"
		}
		rows = append(rows, []any{name, formatValue(value)})
	}
	return printTable(format, []string{"Field Name", "Value"}, rows)
}

// formatValue renders nested property values compactly for table cells.
func formatValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
	return v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(v)
}

// printList renders a plain list of names.
func printList(format string, items []string) error {
	switch format {
	case formatJSON:
		return printJSON(items)
	case formatYAML:
		return printYAML(items)
	}
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	for _, item := range sorted {
		fmt.Println(item)
	}
	return nil
}

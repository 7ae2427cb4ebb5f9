package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
)

// WriteRecords encodes records to w. columns fixes the CSV header order and
// is ignored by the other formats; when empty the sorted union of record
// keys is used.
func WriteRecords(w io.Writer, records []flow.Record, format Format, columns ...string) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records, columns)
	case FormatJSON:
		if records == nil {
			records = []flow.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported record format %q", format)
}

// ExportRecords writes records to the file at path in the format implied by
// its extension.
func ExportRecords(records []flow.Record, path string, columns ...string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteRecords(f, records, format, columns...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, records []flow.Record, columns []string) error {
	if len(columns) == 0 {
		columns = keys(records)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = cell(r[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func keys(records []flow.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

package io

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
)

// Format names a record serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported record formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported record format %q (use csv, json, or yaml)", s)
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer record format of %s", path)
	}
	return ParseFormat(ext)
}

// ImportRecords reads the records in the file at path, using the file
// extension to choose the format.
func ImportRecords(path string) ([]flow.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadRecords(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadRecords decodes records from r in the given format.
// ReadRecords does not close r.
func ReadRecords(r io.Reader, format Format) ([]flow.Record, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported record format %q", format)
}

// ReadCSV decodes a CSV document whose first row holds the column headers.
// Cells are kept verbatim. Short rows leave their trailing columns unset;
// blank header cells are ignored and a repeated header is renamed Name_1,
// Name_2 and so on.
func ReadCSV(r io.Reader) ([]flow.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []flow.Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := columnNames(header)

	records := []flow.Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv")
		}
		rec := make(flow.Record, len(columns))
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			if name := columns[i]; name != "" {
				rec[name] = cell
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// columnNames trims header cells and makes repeated names unique. Blank
// cells stay blank so their columns are dropped.
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name != "" {
			seen[name] = true
		}
		names[i] = name
	}
	taken := make(map[string]bool, len(header))
	for i, name := range names {
		if name == "" {
			continue
		}
		if taken[name] {
			for n := 1; ; n++ {
				alt := fmt.Sprintf("%s_%d", name, n)
				if !seen[alt] && !taken[alt] {
					name = alt
					break
				}
			}
			names[i] = name
		}
		taken[name] = true
	}
	return names
}

// ReadJSON decodes either a JSON array of objects or an object of the form
// {"rows": [...]}. Numbers keep their literal text.
func ReadJSON(r io.Reader) ([]flow.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []flow.Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []flow.Record
	switch data[0] {
	case '[':
		if err := dec.Decode(&records); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json records")
		}
	case '{':
		var wrapper struct {
			Rows []flow.Record `json:"rows"`
		}
		if err := dec.Decode(&wrapper); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json records")
		}
		records = wrapper.Rows
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "json records must be an array or an object with a rows array")
	}
	return compact(records), nil
}

// ReadYAML decodes a YAML sequence of mappings.
func ReadYAML(r io.Reader) ([]flow.Record, error) {
	var records []flow.Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return []flow.Record{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml records")
	}
	return compact(records), nil
}

// compact drops null entries and never returns nil.
func compact(records []flow.Record) []flow.Record {
	out := make([]flow.Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

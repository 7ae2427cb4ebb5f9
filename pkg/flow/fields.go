package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Record is one input row as parsed from a spreadsheet, CSV, JSON, or YAML
// source: header name to cell value.
type Record map[string]any

// Field describes how one logical flow attribute is located in a Record.
type Field struct {
	Name    string
	Aliases []string // in priority order
	Default string
}

// Fields recognised in input records. Header spellings vary between
// exports, so each field accepts several aliases.
var (
	FieldFrom = Field{
		Name:    "from",
		Aliases: []string{"From App Key", "from app key", "FROM APP KEY", "FromAppKey", "Source"},
	}
	FieldTo = Field{
		Name:    "to",
		Aliases: []string{"To App Key", "to app key", "TO APP KEY", "ToAppKey", "Target", "Destination"},
	}
	FieldDataForm = Field{
		Name:    "dataForm",
		Aliases: []string{"Data Form", "data form", "DATA FORM", "DataForm", "Format", "Type"},
		Default: graph.Unknown,
	}
	FieldFrequency = Field{
		Name:    "frequency",
		Aliases: []string{"Frequency", "frequency", "FREQUENCY", "Freq"},
		Default: graph.Unknown,
	}
	FieldIntegrationPattern = Field{
		Name: "integrationPattern",
		Aliases: []string{
			"Integration Pattern", "integration pattern", "INTEGRATION PATTERN", "IntegrationPattern",
			// legacy exports
			"Communication Type", "communication type", "COMMUNICATION TYPE", "CommunicationType", "Comm Type",
			"Type", "Mode",
		},
		Default: graph.Unknown,
	}
	FieldDescription = Field{
		Name:    "description",
		Aliases: []string{"Description", "description", "DESCRIPTION", "Desc", "desc"},
	}
)

// Lookup returns the field's value in r.
//
// Aliases are first tried as exact keys. If none holds a value, each alias
// is matched case-insensitively against the record's keys, taking the first
// key that matches. The default is returned when nothing is found.
// Values are taken verbatim; only the empty string counts as missing.
func (f Field) Lookup(r Record) string {
	if v, ok := f.lookup(r); ok {
		return v
	}
	return f.Default
}

func (f Field) lookup(r Record) (string, bool) {
	for _, alias := range f.Aliases {
		if v, ok := r[alias]; ok {
			if s := stringify(v); s != "" {
				return s, true
			}
		}
	}

	// Record keys are unordered; resolve "first matching key" deterministically
	// by preferring the lexically smallest candidate.
	for _, alias := range f.Aliases {
		var (
			found string
			hit   bool
		)
		for k := range r {
			if strings.EqualFold(k, alias) && (!hit || k < found) {
				found, hit = k, true
			}
		}
		if hit {
			if s := stringify(r[found]); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// stringify renders a cell value as text. Spreadsheet parsers hand back
// numbers and booleans as well as strings. Strings are returned unchanged:
// "CRM" and "CRM " are different systems.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// =============================================================================
// RawFlow
// =============================================================================

// RawFlow is one normalized input record.
type RawFlow struct {
	From               string `json:"from" yaml:"from"`
	To                 string `json:"to" yaml:"to"`
	DataForm           string `json:"data_form,omitempty" yaml:"data_form,omitempty"`
	Frequency          string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	IntegrationPattern string `json:"integration_pattern,omitempty" yaml:"integration_pattern,omitempty"`
	Description        string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Valid reports whether both endpoints are present. A whitespace-only ID
// is present.
func (f RawFlow) Valid() bool {
	return f.From != "" && f.To != ""
}

// withDefaults fills absent optional attributes.
func (f RawFlow) withDefaults() RawFlow {
	f.DataForm = orDefault(f.DataForm, FieldDataForm.Default)
	f.Frequency = orDefault(f.Frequency, FieldFrequency.Default)
	f.IntegrationPattern = orDefault(f.IntegrationPattern, FieldIntegrationPattern.Default)
	return f
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// FromRecord extracts a RawFlow from a generic record. The boolean is false
// when the record lacks a source or target system.
func FromRecord(r Record) (RawFlow, bool) {
	f := RawFlow{
		From:               FieldFrom.Lookup(r),
		To:                 FieldTo.Lookup(r),
		DataForm:           FieldDataForm.Lookup(r),
		Frequency:          FieldFrequency.Lookup(r),
		IntegrationPattern: FieldIntegrationPattern.Lookup(r),
		Description:        FieldDescription.Lookup(r),
	}
	return f, f.Valid()
}

// FromRecords extracts RawFlows from records, dropping invalid rows.
// The second return value counts dropped rows.
func FromRecords(records []Record) ([]RawFlow, int) {
	flows := make([]RawFlow, 0, len(records))
	skipped := 0
	for _, r := range records {
		f, ok := FromRecord(r)
		if !ok {
			skipped++
			continue
		}
		flows = append(flows, f)
	}
	return flows, skipped
}

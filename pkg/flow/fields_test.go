package flow

import (
	"testing"

	"github.com/matzehuels/flowmap/pkg/graph"
)

func TestFieldLookup(t *testing.T) {
	tests := []struct {
		name   string
		field  Field
		record Record
		want   string
	}{
		{
			name:   "exact alias",
			field:  FieldFrom,
			record: Record{"From App Key": "CRM"},
			want:   "CRM",
		},
		{
			name:   "alias priority",
			field:  FieldFrom,
			record: Record{"Source": "Other", "FromAppKey": "CRM"},
			want:   "CRM",
		},
		{
			name:   "empty alias skipped",
			field:  FieldFrom,
			record: Record{"From App Key": "", "Source": "CRM"},
			want:   "CRM",
		},
		{
			name:   "case-insensitive fallback",
			field:  FieldTo,
			record: Record{"to APP key": "ERP"},
			want:   "ERP",
		},
		{
			name:   "case-insensitive destination",
			field:  FieldTo,
			record: Record{"DESTINATION": "ERP"},
			want:   "ERP",
		},
		{
			name:   "legacy communication type",
			field:  FieldIntegrationPattern,
			record: Record{"Comm Type": "Queue"},
			want:   "Queue",
		},
		{
			name:   "default when missing",
			field:  FieldFrequency,
			record: Record{"Other": "x"},
			want:   graph.Unknown,
		},
		{
			name:   "description default is empty",
			field:  FieldDescription,
			record: Record{},
			want:   "",
		},
		{
			name:   "numeric value",
			field:  FieldFrom,
			record: Record{"Source": float64(42)},
			want:   "42",
		},
		{
			name:   "whitespace kept",
			field:  FieldFrom,
			record: Record{"Source": "  CRM  "},
			want:   "  CRM  ",
		},
		{
			name:   "whitespace only is a value",
			field:  FieldDataForm,
			record: Record{"Data Form": "   "},
			want:   "   ",
		},
		{
			name:   "empty string is missing",
			field:  FieldDataForm,
			record: Record{"Data Form": "", "format": "XML"},
			want:   "XML",
		},
		{
			name:   "nil value is missing",
			field:  FieldDataForm,
			record: Record{"Data Form": nil, "format": "XML"},
			want:   "XML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Lookup(tt.record); got != tt.want {
				t.Errorf("%s.Lookup(%v) = %q, want %q", tt.field.Name, tt.record, got, tt.want)
			}
		})
	}
}

func TestTypeAliasFeedsBothFields(t *testing.T) {
	r := Record{"From App Key": "A", "To App Key": "B", "Type": "File"}
	f, ok := FromRecord(r)
	if !ok {
		t.Fatal("FromRecord() ok = false, want true")
	}
	if f.DataForm != "File" || f.IntegrationPattern != "File" {
		t.Errorf("DataForm = %q, IntegrationPattern = %q, want File for both", f.DataForm, f.IntegrationPattern)
	}
}

func TestFromRecords(t *testing.T) {
	records := []Record{
		{"Source": "A", "Target": "B"},
		{"Source": "A"},
		{},
		{"Source": "B", "Destination": "C"},
	}
	flows, skipped := FromRecords(records)
	if len(flows) != 2 {
		t.Errorf("len(flows) = %d, want 2", len(flows))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

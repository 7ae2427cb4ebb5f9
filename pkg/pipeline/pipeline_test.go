package pipeline

import (
	"testing"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"json", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"svg", []string{"svg"}, false},
		{"svg, PNG ,dot", []string{"svg", "png", "dot"}, false},
		{"json,json", []string{"json"}, false},
		{" , ", nil, false},
		{"svg,pdf", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseFormats(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormats(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestOptionsValidateForConsolidate(t *testing.T) {
	opts := Options{}
	err := opts.ValidateForConsolidate()
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing records error = %v, want INVALID_INPUT", err)
	}

	opts = Options{Records: []flow.Record{{"From App Key": "A", "To App Key": "B"}}}
	if err := opts.ValidateForConsolidate(); err != nil {
		t.Errorf("valid records should pass: %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateForLayout(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"negative width", Options{Width: -1}, errors.ErrCodeInvalidDimensions},
		{"negative margin", Options{Margin: -5}, errors.ErrCodeInvalidInput},
		{"too many workers", Options{Workers: MaxWorkers + 1}, errors.ErrCodeInvalidInput},
		{"negative iterations", Options{MaxIterations: -1}, errors.ErrCodeInvalidInput},
		{"small canvas", Options{Width: 50, Height: 50}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateForLayout()
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateForLayout() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateForLayout() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{
		Records: []flow.Record{{"Source": "A", "Target": "B"}},
	}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalWidth := opts.Width
	originalSeed := opts.Seed
	originalFormats := opts.Formats

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Width != originalWidth {
		t.Error("Width changed on second call")
	}
	if opts.Seed != originalSeed {
		t.Error("Seed changed on second call")
	}
	if len(opts.Formats) != len(originalFormats) {
		t.Error("Formats changed on second call")
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %f, got %f", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %f, got %f", DefaultHeight, opts.Height)
	}
	if opts.Margin != DefaultMargin {
		t.Errorf("Margin should be %f, got %f", DefaultMargin, opts.Margin)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed should be %d, got %d", DefaultSeed, opts.Seed)
	}
	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers should be %d, got %d", DefaultWorkers, opts.Workers)
	}
}

func TestSetLayoutDefaultsKeepsExplicitZero(t *testing.T) {
	tests := []struct {
		name     string
		explicit LayoutField
		want     Options
	}{
		{"nothing explicit", 0, Options{Width: DefaultWidth, Height: DefaultHeight, Margin: DefaultMargin, Seed: DefaultSeed}},
		{"zero margin", FieldMargin, Options{Width: DefaultWidth, Height: DefaultHeight, Margin: 0, Seed: DefaultSeed}},
		{"zero width and seed", FieldWidth | FieldSeed, Options{Width: 0, Height: DefaultHeight, Margin: DefaultMargin, Seed: 0}},
		{"all", AllLayoutFields, Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Explicit: tt.explicit}
			if err := opts.ValidateForLayout(); err != nil {
				t.Fatalf("ValidateForLayout() error: %v", err)
			}
			if opts.Width != tt.want.Width || opts.Height != tt.want.Height ||
				opts.Margin != tt.want.Margin || opts.Seed != tt.want.Seed {
				t.Errorf("got width=%v height=%v margin=%v seed=%d, want width=%v height=%v margin=%v seed=%d",
					opts.Width, opts.Height, opts.Margin, opts.Seed,
					tt.want.Width, tt.want.Height, tt.want.Margin, tt.want.Seed)
			}
		})
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
}

func TestKeyOptsIgnoreCase(t *testing.T) {
	a := Options{Pattern: "API", Frequency: "Daily"}
	b := Options{Pattern: "api", Frequency: "daily"}
	if a.GraphKeyOpts() != b.GraphKeyOpts() {
		t.Errorf("GraphKeyOpts should fold case: %+v vs %+v", a.GraphKeyOpts(), b.GraphKeyOpts())
	}

	c := Options{Seed: 1, Workers: 1}
	d := Options{Seed: 1, Workers: 8}
	if c.LayoutKeyOpts() != d.LayoutKeyOpts() {
		t.Error("LayoutKeyOpts should not depend on worker count")
	}
}

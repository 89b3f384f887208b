package core

import (
	"reflect"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseYear Tests
// ----------------------------------------------------------------------------

func TestParseYear(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue int
	}{
		// Valid
		{name: "plain year", input: "1520", wantValid: true, wantValue: 1520},
		{name: "surrounding whitespace", input: "  1520 ", wantValid: true, wantValue: 1520},
		{name: "trailing question mark", input: "1520?", wantValid: true, wantValue: 1520},
		{name: "year range keeps first", input: "1520-1525", wantValid: true, wantValue: 1520},
		{name: "trailing annotation", input: "1520 ca.", wantValid: true, wantValue: 1520},
		{name: "negative", input: "-44", wantValid: true, wantValue: -44},
		{name: "excel formula prefix", input: `="1499"`, wantValid: true, wantValue: 1499},
		{name: "byte order mark", input: "\uFEFF1450", wantValid: true, wantValue: 1450},

		// Invalid
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "leading text", input: "c.1520", wantValid: false},
		{name: "word", input: "unknown", wantValid: false},
		{name: "sign only", input: "-", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseYear(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ParseYear(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Int != tt.wantValue {
				t.Errorf("ParseYear(%q) = %d, want %d", tt.input, got.Int, tt.wantValue)
			}
		})
	}
}

func TestOptInt_Or(t *testing.T) {
	if got := (OptInt{}).Or(1400); got != 1400 {
		t.Errorf("absent.Or(1400) = %d, want 1400", got)
	}
	if got := Some(0).Or(1400); got != 0 {
		t.Errorf("Some(0).Or(1400) = %d, want 0", got)
	}
}

func TestOptInt_JSON(t *testing.T) {
	b, err := (OptInt{}).MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Errorf("absent MarshalJSON = %s, %v, want null", b, err)
	}

	var o OptInt
	if err := o.UnmarshalJSON([]byte("1520")); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if o != Some(1520) {
		t.Errorf("UnmarshalJSON(1520) = %+v, want Some(1520)", o)
	}
}

// ----------------------------------------------------------------------------
// ParseCoordinates Tests
// ----------------------------------------------------------------------------

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Coordinates
		wantOK bool
	}{
		{name: "plain", input: "45.0,9.0", want: Coordinates{45, 9}, wantOK: true},
		{name: "spaces", input: " 45.46 , 9.19 ", want: Coordinates{45.46, 9.19}, wantOK: true},
		{name: "negative", input: "-33.9,-18.4", want: Coordinates{-33.9, -18.4}, wantOK: true},
		{name: "integers", input: "45,9", want: Coordinates{45, 9}, wantOK: true},

		{name: "empty", input: "", wantOK: false},
		{name: "single value", input: "45.0", wantOK: false},
		{name: "three values", input: "45.0,9.0,3", wantOK: false},
		{name: "missing second", input: "45.0,", wantOK: false},
		{name: "text", input: "north,east", wantOK: false},
		{name: "semicolon", input: "45.0;9.0", wantOK: false},
		{name: "infinite", input: "Inf,9", wantOK: false},
		{name: "nan", input: "NaN,9", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCoordinates(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseCoordinates(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseCoordinates(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// SplitList Tests
// ----------------------------------------------------------------------------

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "blank", input: "  ", want: nil},
		{name: "single", input: "BIB1", want: []string{"BIB1"}},
		{name: "irregular spacing", input: "BIB1 ;BIB2;  BIB3", want: []string{"BIB1", "BIB2", "BIB3"}},
		{name: "keeps interior empties", input: "12;;14", want: []string{"12", "", "14"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitList(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitNonEmpty(t *testing.T) {
	got := SplitNonEmpty("Josquin; ;Des Prez;")
	want := []string{"Josquin", "Des Prez"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitNonEmpty = %#v, want %#v", got, want)
	}
	if got := SplitNonEmpty(""); got == nil || len(got) != 0 {
		t.Errorf("SplitNonEmpty(\"\") = %#v, want empty non-nil", got)
	}
}

// ----------------------------------------------------------------------------
// CleanCell / CleanHeader Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"\uFEFFEV1", "EV1"},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanHeader(t *testing.T) {
	if got := CleanHeader(" \uFEFF EVID "); got != "EVID" {
		t.Errorf("CleanHeader = %q, want %q", got, "EVID")
	}
}

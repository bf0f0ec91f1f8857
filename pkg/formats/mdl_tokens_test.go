package formats

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	text := "# header comment\n" +
		"newanim walk c_dog   # trailing\n" +
		"\n" +
		"   \t \n" +
		"  length\t1.5\r\n" +
		"#only comment\n" +
		"doneanim walk c_dog"

	rows, err := Tokenize(text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	want := []Row{
		{Fields: []string{"newanim", "walk", "c_dog"}, Line: 2},
		{Fields: []string{"length", "1.5"}, Line: 5},
		{Fields: []string{"doneanim", "walk", "c_dog"}, Line: 7},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Tokenize() = %+v, want %+v", rows, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	rows, err := Tokenize("\n\n# nothing here\n")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestRowLabel(t *testing.T) {
	r := Row{Fields: []string{"PositionKey", "3"}}
	if got := r.Label(); got != "positionkey" {
		t.Errorf("Label() = %q", got)
	}
	if got := r.Arg(5); got != "" {
		t.Errorf("Arg(5) = %q, want empty", got)
	}
	if got := r.Text(); got != "PositionKey 3" {
		t.Errorf("Text() = %q", got)
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"0", true},
		{"-1.25", true},
		{"3e-4", true},
		{".5", true},
		{"1e999", true},
		{"endnode", false},
		{"position", false},
		{"1.2.3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := IsNumeric(tt.field); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestScanKeyBlock(t *testing.T) {
	rows, err := Tokenize(`positionkey 3
0 0 0 0
0.5 1 1 1
1.0 2 2 2
orientationkey 1
0 0 0 1 0
`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	if got := ScanKeyBlock(rows, 1); got != 3 {
		t.Errorf("ScanKeyBlock(position) = %d, want 3", got)
	}
	if got := ScanKeyBlock(rows, 5); got != 1 {
		t.Errorf("ScanKeyBlock(orientation) = %d, want 1", got)
	}
	if got := ScanKeyBlock(rows, 4); got != 0 {
		t.Errorf("ScanKeyBlock at keyword row = %d, want 0", got)
	}
	if got := ScanKeyBlock(rows, len(rows)); got != 0 {
		t.Errorf("ScanKeyBlock past end = %d, want 0", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.0000000001, "0"},
		{-0.000000000000003441691, "0"},
		{0.00000012345678, "0.0000001234568"},
		{1, "1"},
		{1.5, "1.5"},
		{0.123456789, "0.1234568"},
		{123456789, "123456800"},
		{1e-8, "0"},
		{-2.25, "-2.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatFloat(tt.in); got != tt.want {
				t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTime(t *testing.T) {
	if got := RoundTime(1.0 / 3.0); got != 0.3333333 {
		t.Errorf("RoundTime(1/3) = %v", got)
	}
}

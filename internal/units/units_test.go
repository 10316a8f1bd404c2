package units

import (
	"math"
	"testing"
)

func TestConvertLength(t *testing.T) {
	tests := []struct {
		name     string
		mm       float64
		units    string
		expected float64
	}{
		{"440 mm to cm", 440, CM, 44},
		{"440 mm to m", 440, M, 0.44},
		{"440 mm to mm", 440, MM, 440},
		{"unknown units default to mm", 440, "inch", 440},
		{"table length to m", 2288, M, 2.288},
		{"zero", 0, CM, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertLength(tt.mm, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertLength(%f, %s) = %f, want %f", tt.mm, tt.units, result, tt.expected)
			}
		})
	}
}

func TestFormatLength(t *testing.T) {
	if got := FormatLength(132, CM); got != "13.2" {
		t.Errorf("FormatLength(132, cm) = %q, want 13.2", got)
	}
	if got := FormatLength(1000, M); got != "1" {
		t.Errorf("FormatLength(1000, m) = %q, want 1", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mm", MM, true},
		{"valid cm", CM, true},
		{"valid m", M, true},
		{"invalid unit", "mph", false},
		{"empty string", "", false},
		{"case sensitive", "CM", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "mm, cm, m" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

func TestFormatLength_Rounds(t *testing.T) {
	if got := FormatLength(263.99999999997, CM); got != "26.4" {
		t.Errorf("FormatLength(263.99999999997, cm) = %q, want 26.4", got)
	}
}

func TestToMillimetres(t *testing.T) {
	for _, unit := range ValidUnits {
		if got := ConvertLength(ToMillimetres(12.5, unit), unit); math.Abs(got-12.5) > 1e-9 {
			t.Errorf("round trip through %s = %f, want 12.5", unit, got)
		}
	}
	if got := ToMillimetres(3, "yard"); got != 3 {
		t.Errorf("ToMillimetres(3, yard) = %f, want 3", got)
	}
}

package mathutil

import "testing"

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		expected float64
	}{
		{"Round up", 918.876, 918.88},
		{"Round down", 2905.2111, 2905.21},
		{"Negative", -2905.214, -2905.21},
		{"Already rounded", 24010.00, 24010.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.val); got != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.val, got, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	if !IsZero(0.005) {
		t.Errorf("IsZero(0.005) = false, expected true within currency tolerance")
	}
	if IsZero(0.02) {
		t.Errorf("IsZero(0.02) = true, expected false")
	}
}

func TestIsNegative(t *testing.T) {
	if !IsNegative(-0.5) {
		t.Errorf("IsNegative(-0.5) = false, expected true")
	}
	if IsNegative(-0.005) {
		t.Errorf("IsNegative(-0.005) = true, expected false within tolerance")
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(22238.67, 22238.669999, 1e-3) {
		t.Errorf("WithinTolerance() = false, expected true")
	}
	if WithinTolerance(22238.67, 22240.00, 1e-3) {
		t.Errorf("WithinTolerance() = true, expected false")
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Simple ratio", 9604, 24010, 40.0},
		{"Zero total", 100, 0, 0},
		{"Over 100 percent", 300, 200, 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePercentage(tt.value, tt.total); got != tt.expected {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, got, tt.expected)
			}
		})
	}
}

package datetime

import (
	"testing"
)

func TestParseMeasurementDate(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		expectError bool
	}{
		{"Valid date", "2025-09-30", false},
		{"US format", "09/30/2025", true},
		{"Missing day", "2025-09", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMeasurementDate(tt.date)
			if tt.expectError && err == nil {
				t.Errorf("ParseMeasurementDate(%q) expected error, got nil", tt.date)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ParseMeasurementDate(%q) unexpected error: %v", tt.date, err)
			}
		})
	}
}

func TestDateBeforeDate(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		second   string
		expected bool
	}{
		{"Strictly before", "2024-09-30", "2025-09-30", true},
		{"Equal dates", "2024-09-30", "2024-09-30", false},
		{"Reversed", "2025-09-30", "2024-09-30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateBeforeDate(tt.first, tt.second)
			if err != nil {
				t.Fatalf("DateBeforeDate() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("DateBeforeDate(%s, %s) = %v, expected %v", tt.first, tt.second, got, tt.expected)
			}
		})
	}

	if _, err := DateBeforeDate("garbage", "2024-09-30"); err == nil {
		t.Errorf("DateBeforeDate() expected error for malformed first date")
	}
}

func TestMeasurementYear(t *testing.T) {
	year, err := MeasurementYear("2025-09-30")
	if err != nil {
		t.Fatalf("MeasurementYear() error = %v", err)
	}
	if year != 2025 {
		t.Errorf("MeasurementYear() = %d, expected 2025", year)
	}

	if _, err := MeasurementYear("not a date"); err == nil {
		t.Errorf("MeasurementYear() expected error for malformed date")
	}
}

func TestOffsetYears(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		years    int
		expected string
	}{
		{"Forward one year", "2024-09-30", 1, "2025-09-30"},
		{"Back two years", "2024-09-30", -2, "2022-09-30"},
		{"Zero offset", "2024-09-30", 0, "2024-09-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OffsetYears(tt.date, tt.years)
			if err != nil {
				t.Fatalf("OffsetYears() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("OffsetYears(%s, %d) = %s, expected %s", tt.date, tt.years, got, tt.expected)
			}
		})
	}
}

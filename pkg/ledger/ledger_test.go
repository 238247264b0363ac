package ledger

import (
	"errors"
	"math"
	"testing"
)

// seedEntries builds the window used throughout the GASB 75 schedules:
// vintages 2024 down to 2019 with ARSL frozen at each vintage's origination.
func seedEntries() []Entry {
	return []Entry{
		{VintageYear: 2024, BaseAmount: 120.5, ARSL: 5},
		{VintageYear: 2023, BaseAmount: -310.2, ARSL: 6},
		{VintageYear: 2022, BaseAmount: 85.0, ARSL: 7},
		{VintageYear: 2021, BaseAmount: 0.0, ARSL: 8},
		{VintageYear: 2020, BaseAmount: -42.7, ARSL: 9},
		{VintageYear: 2019, BaseAmount: 230.1, ARSL: 11},
	}
}

func seededLedger(t *testing.T, window int) *Ledger {
	t.Helper()
	l := New(window, nil)
	if err := l.Seed(seedEntries()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return l
}

func TestSeed(t *testing.T) {
	tests := []struct {
		name        string
		window      int
		entries     []Entry
		expectError bool
	}{
		{
			name:    "Contiguous entries in any order",
			window:  7,
			entries: []Entry{{VintageYear: 2022, ARSL: 7}, {VintageYear: 2024, ARSL: 5}, {VintageYear: 2023, ARSL: 6}},
		},
		{
			name:    "Empty seed",
			window:  7,
			entries: nil,
		},
		{
			name:        "Gapped vintages rejected",
			window:      7,
			entries:     []Entry{{VintageYear: 2024, ARSL: 5}, {VintageYear: 2022, ARSL: 7}},
			expectError: true,
		},
		{
			name:        "Duplicate vintages rejected",
			window:      7,
			entries:     []Entry{{VintageYear: 2024, ARSL: 5}, {VintageYear: 2024, ARSL: 6}},
			expectError: true,
		},
		{
			name:        "Seed larger than window rejected",
			window:      2,
			entries:     []Entry{{VintageYear: 2024, ARSL: 5}, {VintageYear: 2023, ARSL: 6}, {VintageYear: 2022, ARSL: 7}},
			expectError: true,
		},
		{
			name:        "Negative ARSL rejected",
			window:      7,
			entries:     []Entry{{VintageYear: 2024, ARSL: -1}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.window, nil)
			err := l.Seed(tt.entries)

			if tt.expectError {
				if err == nil {
					t.Errorf("Seed() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Seed() unexpected error: %v", err)
			}
			if l.Len() != len(tt.entries) {
				t.Errorf("Len() = %d, expected %d", l.Len(), len(tt.entries))
			}
			entries := l.Entries()
			for i := 1; i < len(entries); i++ {
				if entries[i-1].VintageYear != entries[i].VintageYear+1 {
					t.Errorf("entries not ordered most recent first: %v", entries)
				}
			}
		})
	}
}

func TestAdvanceYearARSLImmutability(t *testing.T) {
	l := seededLedger(t, 7)

	evicted, err := l.AdvanceYear(2025, 99.9, 4)
	if err != nil {
		t.Fatalf("AdvanceYear() error = %v", err)
	}
	if evicted != nil {
		t.Errorf("AdvanceYear() evicted vintage %d, expected none at 7 entries", evicted.VintageYear)
	}

	// Every pre-existing vintage keeps the ARSL it was created with.
	expected := map[int]float64{
		2025: 4,
		2024: 5,
		2023: 6,
		2022: 7,
		2021: 8,
		2020: 9,
		2019: 11,
	}
	for vintage, arsl := range expected {
		entry, ok := l.EntryForVintage(vintage)
		if !ok {
			t.Fatalf("EntryForVintage(%d) missing", vintage)
		}
		if entry.ARSL != arsl {
			t.Errorf("vintage %d ARSL = %.1f, expected %.1f", vintage, entry.ARSL, arsl)
		}
	}

	// A further advance must evict exactly the oldest vintage.
	evicted, err = l.AdvanceYear(2026, -15.0, 4)
	if err != nil {
		t.Fatalf("AdvanceYear() error = %v", err)
	}
	if evicted == nil || evicted.VintageYear != 2019 {
		t.Fatalf("AdvanceYear() evicted = %v, expected vintage 2019", evicted)
	}
	if evicted.ARSL != 11 || math.Abs(evicted.BaseAmount-230.1) > 1e-9 {
		t.Errorf("evicted entry = %+v, expected base 230.1 arsl 11", *evicted)
	}
	if _, ok := l.EntryForVintage(2019); ok {
		t.Errorf("vintage 2019 still present after eviction")
	}
	if entry, _ := l.EntryForVintage(2020); entry.ARSL != 9 {
		t.Errorf("vintage 2020 ARSL changed to %.1f after eviction", entry.ARSL)
	}
}

func TestAdvanceYearWindowInvariant(t *testing.T) {
	l := New(7, nil)

	for i := 0; i < 12; i++ {
		vintage := 2019 + i
		if _, err := l.AdvanceYear(vintage, float64(i), 5); err != nil {
			t.Fatalf("AdvanceYear(%d) error = %v", vintage, err)
		}
		if l.Len() > 7 {
			t.Fatalf("ledger holds %d entries after %d advances, window is 7", l.Len(), i+1)
		}
	}
	if l.Len() != 7 {
		t.Errorf("Len() = %d after 12 advances, expected exactly 7", l.Len())
	}
	if max, _ := l.MaxVintage(); max != 2030 {
		t.Errorf("MaxVintage() = %d, expected 2030", max)
	}
	if _, ok := l.EntryForVintage(2023); ok {
		t.Errorf("vintage 2023 should have been evicted")
	}
}

func TestAdvanceYearContiguity(t *testing.T) {
	tests := []struct {
		name    string
		vintage int
	}{
		{name: "Gap ahead", vintage: 2027},
		{name: "Duplicate of most recent", vintage: 2024},
		{name: "Out of order", vintage: 2020},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := seededLedger(t, 7)
			before := l.Entries()

			_, err := l.AdvanceYear(tt.vintage, 10, 5)
			if !errors.Is(err, ErrNonContiguousVintage) {
				t.Fatalf("AdvanceYear(%d) error = %v, expected ErrNonContiguousVintage", tt.vintage, err)
			}

			// Ledger must be unmutated on validation failure.
			after := l.Entries()
			if len(after) != len(before) {
				t.Fatalf("ledger mutated on failed advance: %d entries, expected %d", len(after), len(before))
			}
			for i := range before {
				if after[i] != before[i] {
					t.Errorf("entry %d changed on failed advance: %+v != %+v", i, after[i], before[i])
				}
			}
		})
	}
}

func TestAdvanceYearEmptyLedger(t *testing.T) {
	l := New(7, nil)

	// The first vintage of a fresh ledger may be any year.
	if _, err := l.AdvanceYear(2018, 50, 6); err != nil {
		t.Fatalf("AdvanceYear() on empty ledger error = %v", err)
	}
	if max, ok := l.MaxVintage(); !ok || max != 2018 {
		t.Errorf("MaxVintage() = %d, expected 2018", max)
	}
}

func TestRecognizedAmountThisPeriod(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		expected float64
	}{
		{
			name:     "Empty ledger recognizes nothing",
			entries:  nil,
			expected: 0,
		},
		{
			name: "All entries within recognition period",
			entries: []Entry{
				{VintageYear: 2025, BaseAmount: 100, ARSL: 5},
				{VintageYear: 2024, BaseAmount: 60, ARSL: 6},
			},
			expected: 100.0/5 + 60.0/6,
		},
		{
			name: "Fully recognized entry contributes zero but is not evicted",
			entries: []Entry{
				{VintageYear: 2025, BaseAmount: 100, ARSL: 5},
				{VintageYear: 2024, BaseAmount: 60, ARSL: 6},
				{VintageYear: 2023, BaseAmount: 90, ARSL: 2}, // elapsed 2 >= ARSL 2
			},
			expected: 100.0/5 + 60.0/6,
		},
		{
			name: "Zero ARSL entry is skipped",
			entries: []Entry{
				{VintageYear: 2025, BaseAmount: 100, ARSL: 0},
				{VintageYear: 2024, BaseAmount: 60, ARSL: 6},
			},
			expected: 60.0 / 6,
		},
		{
			name: "Negative bases recognize as credits",
			entries: []Entry{
				{VintageYear: 2025, BaseAmount: -250, ARSL: 5},
				{VintageYear: 2024, BaseAmount: 100, ARSL: 5},
			},
			expected: -250.0/5 + 100.0/5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(7, nil)
			if err := l.Seed(tt.entries); err != nil {
				t.Fatalf("Seed() error = %v", err)
			}

			result := l.RecognizedAmountThisPeriod()
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("RecognizedAmountThisPeriod() = %.6f, expected %.6f", result, tt.expected)
			}
		})
	}
}

func TestRecognitionAndEvictionAreIndependent(t *testing.T) {
	// An entry with a short ARSL completes recognition long before it leaves
	// the reporting window.
	l := New(7, nil)
	if _, err := l.AdvanceYear(2020, 90, 2); err != nil {
		t.Fatalf("AdvanceYear() error = %v", err)
	}

	for year := 2021; year <= 2025; year++ {
		if _, err := l.AdvanceYear(year, 0, 5); err != nil {
			t.Fatalf("AdvanceYear(%d) error = %v", year, err)
		}
	}

	// Elapsed 5 >= ARSL 2: fully recognized, still inside the 7-year window.
	if _, ok := l.EntryForVintage(2020); !ok {
		t.Fatalf("vintage 2020 evicted before window rolled past it")
	}
	if got := l.RecognizedAmountThisPeriod(); got != 0 {
		t.Errorf("RecognizedAmountThisPeriod() = %.2f, expected 0 for fully recognized bases", got)
	}

	// Two more advances push vintage 2020 out of the window.
	if _, err := l.AdvanceYear(2026, 0, 5); err != nil {
		t.Fatalf("AdvanceYear(2026) error = %v", err)
	}
	evicted, err := l.AdvanceYear(2027, 0, 5)
	if err != nil {
		t.Fatalf("AdvanceYear(2027) error = %v", err)
	}
	if evicted == nil || evicted.VintageYear != 2020 {
		t.Errorf("evicted = %v, expected vintage 2020", evicted)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := seededLedger(t, 7)

	entries := l.Entries()
	entries[0].ARSL = 99
	entries[0].BaseAmount = 1e9

	entry, _ := l.EntryForVintage(2024)
	if entry.ARSL != 5 {
		t.Errorf("mutating the Entries() copy changed ledger state: ARSL = %.1f", entry.ARSL)
	}
}

func TestSeedNonEmptyLedger(t *testing.T) {
	l := seededLedger(t, 7)
	if err := l.Seed(seedEntries()); err == nil {
		t.Errorf("Seed() on non-empty ledger expected error, got nil")
	}
}

package valuation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	prior := validPrior()
	path := filepath.Join(t.TempDir(), "prior.json")

	if err := SavePriorValuation(&prior, path); err != nil {
		t.Fatalf("SavePriorValuation() error = %v", err)
	}

	loaded, err := LoadPriorValuation(path)
	if err != nil {
		t.Fatalf("LoadPriorValuation() error = %v", err)
	}
	if *loaded != prior {
		t.Errorf("round trip mismatch: got %+v, expected %+v", *loaded, prior)
	}

	// Field names on disk follow the snake_case snapshot schema.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, field := range []string{
		"valuation_date",
		"total_opeb_liability",
		"tol_actives",
		"tol_retirees",
		"service_cost",
		"discount_rate_boy",
		"discount_rate_eoy",
		"avg_remaining_service_life",
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("snapshot file missing field %q", field)
		}
	}
}

func TestLoadPriorValuationErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadPriorValuation(filepath.Join(dir, "absent.json")); err == nil {
			t.Errorf("LoadPriorValuation() expected error for missing file, got nil")
		}
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := LoadPriorValuation(path); err == nil {
			t.Errorf("LoadPriorValuation() expected error for malformed JSON, got nil")
		}
	})

	t.Run("Invalid snapshot", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{"valuation_date":"2024-09-30","total_opeb_liability":-5}`), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := LoadPriorValuation(path); err == nil {
			t.Errorf("LoadPriorValuation() expected validation error, got nil")
		}
	})
}

func TestSaveResult(t *testing.T) {
	result := RollForwardResult{
		BOYDate:        "2024-09-30",
		EOYDate:        "2025-09-30",
		BOYTOL:         24010,
		ActualEOYTOL:   22238.67,
		ExpectedEOYTOL: 25143.88,
	}
	path := filepath.Join(t.TempDir(), "result.json")

	if err := SaveResult(&result, path); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "expected_eoy_tol") {
		t.Errorf("result file missing expected_eoy_tol field")
	}
}

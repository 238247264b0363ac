package valuation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPriorValuation reads a persisted prior valuation snapshot from a JSON
// file and validates it.
func LoadPriorValuation(path string) (*PriorValuation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading prior valuation snapshot %s: %w", path, err)
	}
	var prior PriorValuation
	if err := json.Unmarshal(data, &prior); err != nil {
		return nil, fmt.Errorf("unable to decode prior valuation snapshot %s: %w", path, err)
	}
	if err := prior.Validate(); err != nil {
		return nil, err
	}
	return &prior, nil
}

// SavePriorValuation writes a prior valuation snapshot to a JSON file.
func SavePriorValuation(prior *PriorValuation, path string) error {
	data, err := json.MarshalIndent(prior, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode prior valuation snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing prior valuation snapshot %s: %w", path, err)
	}
	return nil
}

// SaveResult writes a roll-forward result to a JSON file.
func SaveResult(result *RollForwardResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode roll-forward result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing roll-forward result %s: %w", path, err)
	}
	return nil
}

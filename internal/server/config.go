package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/opeb-rollforward/internal/config"
	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	Logging         config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes int64
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if cfg.Address == "" {
		cfg.Address = constants.DefaultServerAddress
	}
	if strings.TrimSpace(cfg.MaxUploadSize) != "" {
		bytes, err := ParseSize(cfg.MaxUploadSize)
		if err != nil {
			return nil, err
		}
		cfg.uploadSizeBytes = bytes
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(trimmed, "KB"), strings.HasSuffix(trimmed, "K"):
		multiplier = 1024
		trimmed = strings.TrimRight(trimmed, "KB")
	case strings.HasSuffix(trimmed, "MB"), strings.HasSuffix(trimmed, "M"):
		multiplier = 1024 * 1024
		trimmed = strings.TrimRight(trimmed, "MB")
	case strings.HasSuffix(trimmed, "GB"), strings.HasSuffix(trimmed, "G"):
		multiplier = 1024 * 1024 * 1024
		trimmed = strings.TrimRight(trimmed, "GB")
	case strings.HasSuffix(trimmed, "B"):
		trimmed = strings.TrimSuffix(trimmed, "B")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %q", value)
	}
	return n * multiplier, nil
}

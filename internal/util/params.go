package util

import (
	"encoding/json"
	"fmt"
	"hedgebacktest/internal/domain"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadStrategyParameters reads a yaml or json parameter file on top of
// the defaults, so a file only needs the fields it changes
func LoadStrategyParameters(path string) (*domain.StrategyParameters, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params := domain.DefaultStrategyParameters()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(f, &params)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(f, &params)
	default:
		return nil, fmt.Errorf("unsupported parameters file type '%s'", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &params, nil
}

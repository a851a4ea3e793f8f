// Package yamlutil wraps YAML parsing behind a small guarded API, so the
// underlying library stays swappable and every caller gets the same input
// limits. It serves the two YAML shapes in this module: front matter blocks
// and the persisted export configuration.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps YAML input (default 1MB). Front matter and config files
// are tiny; anything larger is a malformed or hostile document.
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal parses data into v after input validation.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalMap parses data into the string-keyed map shape front matter
// blocks take.
func UnmarshalMap(data []byte) (map[string]any, error) {
	fm := map[string]any{}
	if err := Unmarshal(data, &fm); err != nil {
		return nil, err
	}
	return fm, nil
}

// Marshal serializes v, used for the persisted export configuration.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// Package serializer provides the encoding capability consumed by providers
// that keep values outside the Go heap.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMarshal wraps failures of Marshal.
	ErrMarshal = errors.New("unable to serialize value")

	// ErrUnmarshal wraps failures of Unmarshal.
	ErrUnmarshal = errors.New("unable to deserialize value")
)

// Serializer converts values to bytes and back.
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Marshal encodes v.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into the value pointed to by v.
	Unmarshal(data []byte, v any) error
}

// JSON is a Serializer using encoding/json.
type JSON struct{}

var _ Serializer = JSON{}

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return b, nil
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}
	return nil
}

// YAML is a Serializer using gopkg.in/yaml.v3.
type YAML struct{}

var _ Serializer = YAML{}

// Marshal encodes v as YAML.
func (YAML) Marshal(v any) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return b, nil
}

// Unmarshal decodes YAML data into v.
func (YAML) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}
	return nil
}

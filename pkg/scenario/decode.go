package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the catalog format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}

// Parse decodes a catalog. When strict is set, unknown fields are rejected.
// Parse does not validate references; call Validate for that.
func Parse(data []byte, format Format, strict bool) (*Scenario, error) {
	var s Scenario

	switch format {
	case FormatJSON:
		if !json.Valid(data) {
			return nil, fmt.Errorf("catalog contains invalid JSON")
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		if strict {
			decoder.DisallowUnknownFields()
		}
		if err := decoder.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(strict)
		if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	return &s, nil
}

// Load parses and validates a catalog in one step.
func Load(data []byte, format Format) (*Scenario, error) {
	s, err := Parse(data, format, false)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %q: %w", s.Name, err)
	}
	return s, nil
}

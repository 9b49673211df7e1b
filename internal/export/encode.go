package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"storyloom/internal/models"

	"gopkg.in/yaml.v3"
)

// Supported encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseFormat normalizes a requested format; empty means JSON.
func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", models.NewValidationError(fmt.Sprintf("Unsupported export format %q: use json or yaml", raw))
	}
}

// ContentType returns the MIME type for an encoding.
func ContentType(format string) string {
	if format == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode renders doc in the given format with two-space indentation.
func Encode(doc *Document, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(raw, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, models.NewValidationError(fmt.Sprintf("Unsupported export format %q", format))
	}
}

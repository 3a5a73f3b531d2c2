package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConnectionProfile is a common connection profile read once at startup and
// shared by reference with the connector.
type ConnectionProfile struct {
	Path   string
	Format string
	Raw    []byte
	Name   string
}

// LoadConnectionProfile reads and validates the profile at path. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadConnectionProfile(path string) (*ConnectionProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection profile: %w", err)
	}
	return ParseConnectionProfile(path, raw)
}

// ParseConnectionProfile validates raw profile content. path only selects the format.
func ParseConnectionProfile(path string, raw []byte) (*ConnectionProfile, error) {
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	var doc map[string]interface{}
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid connection profile %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid connection profile %s: %w", path, err)
		}
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("invalid connection profile %s: empty document", path)
	}

	name, _ := doc["name"].(string)

	return &ConnectionProfile{
		Path:   path,
		Format: format,
		Raw:    raw,
		Name:   name,
	}, nil
}

package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadParams reads template substitution values from a YAML file:
//
//	month: "03"
//	year: "2024"
//	wilaya: Adrar
//
// Values are plain scalars; substitution is textual, so the file's author
// is responsible for values that are safe inside SQL.
func loadParams(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file: %w", err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse params file %s: %w", path, err)
	}
	params := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			params[key] = v
		case nil:
			params[key] = ""
		default:
			// Unquoted numbers are common in hand-written files.
			params[key] = fmt.Sprintf("%v", v)
		}
	}
	return params, nil
}

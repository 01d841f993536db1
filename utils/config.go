package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
)

// ReadConfig reads filePath and decodes it into a settings map, choosing
// JSON or YAML by extension (.json vs .yaml/.yml). ghodss/yaml round-trips
// through JSON internally, so both formats land on the same map shape
// MapToStruct expects.
func ReadConfig(filePath string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", filePath, err)
	}

	settings := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		err = json.Unmarshal(raw, &settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &settings)
	default:
		return nil, fmt.Errorf("reading config %q: unrecognized extension %q", filePath, filepath.Ext(filePath))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding config %q: %w", filePath, err)
	}
	return settings, nil
}

// SaveConfig flattens src via MapFromStructTag (tagged "json") and writes
// it to filePath, choosing JSON or YAML by extension. It is ReadConfig's
// inverse: a Reader's Options can be captured to a file and reloaded with
// ReadConfig + MapToStruct.
func SaveConfig(filePath string, src interface{}) error {
	flattened := MapFromStructTag(src, "json")

	var out []byte
	var err error
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		out, err = json.MarshalIndent(flattened, "", "  ")
	case ".yaml", ".yml":
		out, err = yaml.Marshal(flattened)
	default:
		return fmt.Errorf("saving config %q: unrecognized extension %q", filePath, filepath.Ext(filePath))
	}
	if err != nil {
		return fmt.Errorf("encoding config %q: %w", filePath, err)
	}

	if err := os.WriteFile(filePath, out, 0o644); err != nil {
		return fmt.Errorf("writing config %q: %w", filePath, err)
	}
	return nil
}

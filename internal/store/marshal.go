package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/boundc/internal/dump"
)

// marshalSettings converts run settings to canonical JSON TEXT.
func marshalSettings(settings map[string]string) (string, error) {
	obj := make(dump.Object, len(settings))
	for k, v := range settings {
		obj[k] = dump.String(v)
	}
	data, err := dump.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	return string(data), nil
}

// unmarshalSettings parses settings TEXT. Non-string values are rejected.
func unmarshalSettings(data string) (map[string]string, error) {
	settings := map[string]string{}
	if data == "" || data == "{}" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

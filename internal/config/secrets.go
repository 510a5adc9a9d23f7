package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SecretsEnvVar holds a JSON object of secrets injected by the platform.
const SecretsEnvVar = "APP_SECRETS"

// LoadSecrets expands a JSON object of string values into environment
// variables. Existing variables are never overwritten and non-string values are
// skipped. It returns the names that were set.
func LoadSecrets(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", SecretsEnvVar, err)
	}

	var set []string
	for key, val := range parsed {
		s, ok := val.(string)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, s); err != nil {
			return set, fmt.Errorf("failed to set %s: %w", key, err)
		}
		set = append(set, key)
	}

	return set, nil
}

package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"stockroom/internal/config"
)

// LoadConfig builds the configuration from environment defaults and
// overlays the YAML file at path on top of them.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

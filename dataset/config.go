package dataset

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SessionConfig carries the session values the execution engine hands over.
// MaxRowsPerBatch 0 means unbounded: one buffer per partition.
type SessionConfig struct {
	TimezoneID      string `yaml:"timezone_id"`
	MaxRowsPerBatch int64  `yaml:"max_rows_per_batch"`
}

func DefaultConfig() SessionConfig {
	return SessionConfig{
		TimezoneID: "UTC",
	}
}

func LoadConfig(path string) (SessionConfig, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrap(err, "parsing config file")
	}
	return config, nil
}

// Package config loads the platform and partition-map metadata the
// bad-block subsystem needs: the reserved block range, and the
// (externally sanitized) partition table. Modeled on
// i5heu-ouroboros-db/internal/config/config.go's
// os.ReadFile + yaml.Unmarshal pattern; no defaults are filled in.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// PartitionEntry mirrors one row of a sanitized partition map.
type PartitionEntry struct {
	Name       string `yaml:"name"`
	FirstBlock uint32 `yaml:"firstBlock"`
	LastBlock  uint32 `yaml:"lastBlock"`
	TypeGUID   string `yaml:"typeGuid"` // hex-encoded, 32 chars
}

// Config is the on-disk shape of a platform's bad-block configuration.
type Config struct {
	TableStartBlock uint32           `yaml:"tableStartBlock"`
	TableEndBlock   uint32           `yaml:"tableEndBlock"`
	Partitions      []PartitionEntry `yaml:"partitions"`
}

// Load reads and parses path. Missing optional fields are left at
// their zero value; callers validate against actual device geometry.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

package datapoint

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a catalog seed:
//
//	datapoints:
//	  - name: boiler_flow_temp
//	    token: "9.001"
//	    group_address: 1/2/3
//	  - name: meter_current
//	    token: holding-register:3:REAL
//	    unit_id: 1
type seedFile struct {
	Datapoints []Datapoint `yaml:"datapoints"`
}

// LoadSeed reads datapoints from a YAML seed file. Entries are not
// validated here; Registry.Apply validates each one.
func LoadSeed(path string) ([]Datapoint, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML.
func ParseSeed(data []byte) ([]Datapoint, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return f.Datapoints, nil
}

// Seed loads path and upserts every entry. A missing path is not an error;
// the catalog simply starts with what the database already holds.
func (r *Registry) Seed(ctx context.Context, path string) (ApplyResult, error) {
	if path == "" {
		return ApplyResult{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.logger.Warn("seed file not found", "path", path)
		return ApplyResult{}, nil
	}

	set, err := LoadSeed(path)
	if err != nil {
		return ApplyResult{}, err
	}
	return r.Apply(ctx, set, SourceSeed)
}

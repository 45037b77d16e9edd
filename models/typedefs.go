package models

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// TypeDefs is an optional definitions file that overrides the display
// attributes (icon, color) of platform-reported work item types.
type TypeDefs struct {
	Types []WorkItemType `yaml:"types"`
}

// LoadTypeDefs reads a YAML definitions file from fs. A missing file is not
// an error; it simply yields no overrides.
func LoadTypeDefs(fs afero.Fs, path string) (map[string]WorkItemType, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat type definitions %s: %w", path, err)
	}
	if !exists {
		return map[string]WorkItemType{}, nil
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read type definitions %s: %w", path, err)
	}

	var defs TypeDefs
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse type definitions %s: %w", path, err)
	}

	overrides := make(map[string]WorkItemType, len(defs.Types))
	for _, t := range defs.Types {
		if t.Name == "" {
			continue
		}
		overrides[t.Name] = t
	}
	return overrides, nil
}

// MergeTypeDefs applies overrides on top of the platform-reported types.
// Only non-empty override fields replace the reported values.
func MergeTypeDefs(reported map[string]WorkItemType, overrides map[string]WorkItemType) map[string]WorkItemType {
	merged := make(map[string]WorkItemType, len(reported))
	for name, t := range reported {
		if o, ok := overrides[name]; ok {
			if o.Icon != "" {
				t.Icon = o.Icon
			}
			if o.Color != "" {
				t.Color = o.Color
			}
		}
		merged[name] = t
	}
	for name, o := range overrides {
		if _, ok := merged[name]; !ok {
			merged[name] = o
		}
	}
	return merged
}

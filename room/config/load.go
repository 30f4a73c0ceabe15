package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadOptions configures the behavior of config loading
type LoadOptions struct {
	ValidateImmediately bool
	ResolvePaths        bool
	MergeFiles          bool
}

// LoadFromFile loads an ExperimentConfig from a YAML file
func LoadFromFile(path string, opts LoadOptions) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := &ExperimentConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if opts.ResolvePaths {
		resolver := NewPathResolver(filepath.Dir(path))
		config.ResolvePaths(resolver)
		// Relative paths can only be checked once resolved
		if errs := config.MissingFiles(); opts.ValidateImmediately && len(errs) > 0 {
			return nil, fmt.Errorf("invalid config %s:\n%s", path, FormatValidationErrors(errs))
		}
	}

	if opts.MergeFiles {
		if err := config.LoadAndMerge(); err != nil {
			return nil, fmt.Errorf("merging external files: %w", err)
		}
	}

	if opts.ValidateImmediately {
		if errs := config.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("invalid config %s:\n%s", path, FormatValidationErrors(errs))
		}
	}

	return config, nil
}

// SaveToFile stamps the metadata and saves an ExperimentConfig to a YAML file
func SaveToFile(config *ExperimentConfig, path string) error {
	NewMetadataCollector().PopulateMetadata(config)

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ResolvePaths resolves all relative paths in the config against the resolver's base directory
func (c *ExperimentConfig) ResolvePaths(resolver *PathResolver) {
	if c.Input.Mesh != nil {
		c.Input.Mesh.Path = resolver.ResolvePath(c.Input.Mesh.Path)
	}
	if c.Materials.FromFile != "" {
		c.Materials.FromFile = resolver.ResolvePath(c.Materials.FromFile)
	}
	if c.SurfaceAssignments.FromFile != "" {
		c.SurfaceAssignments.FromFile = resolver.ResolvePath(c.SurfaceAssignments.FromFile)
	}
	for i := range c.Sources {
		if c.Sources[i].Signal != "" {
			c.Sources[i].Signal = resolver.ResolvePath(c.Sources[i].Signal)
		}
	}
}

// UnmarshalYAML accepts a single number or a sequence
func (c *Coefficients) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var v float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*c = Coefficients{v}
		return nil
	}
	var list []float64
	if err := value.Decode(&list); err != nil {
		return err
	}
	*c = list
	return nil
}

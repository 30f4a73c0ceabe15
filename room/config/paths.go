package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver handles resolution of relative paths in the config
type PathResolver struct {
	baseDir string
}

// NewPathResolver creates a new PathResolver relative to the given base directory
func NewPathResolver(baseDir string) *PathResolver {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	return &PathResolver{baseDir: baseDir}
}

// ResolvePath resolves a relative path against the base directory. Empty paths stay empty.
func (pr *PathResolver) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(pr.baseDir, path)
}

// MissingFiles reports every file the config references that cannot be read
func (c *ExperimentConfig) MissingFiles() []ValidationError {
	var errors []ValidationError
	check := func(field, path string) {
		if path == "" {
			return
		}
		if _, err := os.Stat(path); err != nil {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("cannot read %s", path),
			})
		}
	}
	if c.Input.Mesh != nil {
		check("input.mesh.path", c.Input.Mesh.Path)
	}
	check("materials.from_file", c.Materials.FromFile)
	check("surface_assignments.from_file", c.SurfaceAssignments.FromFile)
	for i, s := range c.Sources {
		check(fmt.Sprintf("sources.%d.signal", i), s.Signal)
	}
	return errors
}

package experiment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	ExperimentsDir = "experiments"
	LatestSymlink  = "latest"
)

type ExperimentDir struct {
	Path      string    // Absolute path to experiment directory
	ID        string    // Unique experiment identifier
	Timestamp time.Time // When the experiment was created
}

// CreateExperimentDirectory creates a new experiment directory under root and
// points root/latest at it. An empty root means ExperimentsDir.
func CreateExperimentDirectory(root string, logger *slog.Logger) (*ExperimentDir, error) {
	if root == "" {
		root = ExperimentsDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating experiments directory: %w", err)
	}

	id := GenerateExperimentID()
	absPath, err := filepath.Abs(filepath.Join(root, id))
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if err := os.Mkdir(absPath, 0755); err != nil {
		return nil, fmt.Errorf("creating experiment directory: %w", err)
	}

	latestPath := filepath.Join(root, LatestSymlink)
	_ = os.Remove(latestPath)
	if err := os.Symlink(id, latestPath); err != nil {
		// Don't fail if symlink creation fails
		logger.Warn("failed to create latest symlink", "path", latestPath, "error", err)
	}

	logger.Info("created experiment directory", "id", id, "path", absPath)
	return &ExperimentDir{
		Path:      absPath,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetFilePath returns the absolute path for a file in the experiment directory
func (e *ExperimentDir) GetFilePath(filename string) string {
	return filepath.Join(e.Path, filename)
}

// CopyConfigFile copies the provided config file to the experiment directory
func (e *ExperimentDir) CopyConfigFile(srcPath string) error {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	destPath := e.GetFilePath(filepath.Base(srcPath))
	if err := os.WriteFile(destPath, content, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteJSON writes v as indented JSON to filename inside the experiment directory
func (e *ExperimentDir) WriteJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filename, err)
	}
	if err := os.WriteFile(e.GetFilePath(filename), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

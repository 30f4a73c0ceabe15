package experiment

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-roomsim/room"
)

func TestGenerateExperimentID(t *testing.T) {
	id := GenerateExperimentID()
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+-[a-z]+-\d{8}-\d{6}\.\d{3}$`), id)
}

func TestCreateExperimentDirectory(t *testing.T) {
	root := t.TempDir()
	dir, err := CreateExperimentDirectory(root, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir.Path))
	assert.DirExists(t, dir.Path)

	target, err := os.Readlink(filepath.Join(root, LatestSymlink))
	require.NoError(t, err)
	assert.Equal(t, dir.ID, target)

	config := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(config, []byte("input: {}\n"), 0644))
	require.NoError(t, dir.CopyConfigFile(config))
	assert.FileExists(t, dir.GetFilePath("room.yaml"))
	assert.Error(t, dir.CopyConfigFile(filepath.Join(root, "missing.yaml")))
}

func TestWriteResults(t *testing.T) {
	cfg := room.DefaultConfig()
	cfg.Fs = 8000
	cfg.MaxOrder = 3
	cfg.NumRays = 1000
	cfg.TimeThreshold = 0.4
	cfg.MaxRIRLength = 0.5
	r, err := room.NewShoeBox(room.V(6, 4, 3), map[string]room.Material{"default": room.NewMaterial(0.4, 0.1)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(room.Source{Position: room.V(1, 1, 1.2), Signal: []float64{1, 0, 0.5}})
	require.NoError(t, err)
	_, err = r.AddMicrophone(room.Microphone{Name: "listener", Position: room.V(4, 2.5, 1.2)})
	require.NoError(t, err)
	if err := r.Simulate(context.Background()); err != nil {
		require.NotErrorIs(t, err, room.ErrState)
	}

	dir, err := CreateExperimentDirectory(t.TempDir(), nil)
	require.NoError(t, err)
	summary, err := dir.WriteResults(r, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, dir.ID, summary.ID)
	assert.InDelta(t, 72, summary.Volume, 1e-9)
	require.Len(t, summary.Pairs, 1)
	pair := summary.Pairs[0]
	assert.Equal(t, "listener", pair.MicName)
	assert.Positive(t, pair.Arrivals)
	assert.Positive(t, pair.ITDG)

	assert.FileExists(t, dir.GetFilePath(RIRsFile))
	assert.FileExists(t, dir.GetFilePath(SignalsFile))
	data, err := os.ReadFile(dir.GetFilePath(SummaryFile))
	require.NoError(t, err)
	var saved Summary
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, summary.Pairs, saved.Pairs)

	if pair.Error == "" {
		for _, name := range []string{"rir_m0_s0.png", "arrivals_m0_s0.png", "floorplan_m0_s0.png", "annotations_m0_s0.json"} {
			assert.FileExists(t, dir.GetFilePath(name))
		}
	}
}

package interact

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-roomsim/room"
)

func TestItems(t *testing.T) {
	items := Items([]room.Arrival{
		{Order: 1, Distance: 6.86, Time: 0.02, Energy: []float64{0.01, 0.001}},
		{Order: 0, Distance: 3.43, Time: 0.01, Energy: []float64{0.1, 0.1}},
	})
	require.Len(t, items, 2)
	reflection := items[0].(item)
	assert.InDelta(t, 10, reflection.delayMs, 1e-9)
	assert.InDelta(t, -10, reflection.levelDB, 1e-9)
	assert.Equal(t, "order 1, 6.86 m", reflection.Description())
	direct := items[1].(item)
	assert.Zero(t, direct.delayMs)
	assert.Zero(t, direct.levelDB)

	assert.Empty(t, Items(nil))
}

func TestModel(t *testing.T) {
	cfg := room.DefaultConfig()
	cfg.MaxOrder = 2
	cfg.UseRayTracing = false
	r, err := room.NewShoeBox(room.V(6, 4, 3), map[string]room.Material{"default": room.NewMaterial(0.3, 0)}, cfg)
	require.NoError(t, err)
	_, err = r.AddSource(room.Source{Position: room.V(1, 1, 1.2)})
	require.NoError(t, err)
	_, err = r.AddMicrophone(room.Microphone{Position: room.V(4, 2.5, 1.2)})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "arrival.png")
	_, err = NewModel(r, 0, 0, out)
	assert.ErrorIs(t, err, room.ErrState, "no arrivals before the image source model")

	require.NoError(t, r.ImageSourceModel())
	m, err := NewModel(r, 0, 0, out)
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.NoError(t, m.(model).err)

	require.NoError(t, os.Remove(out))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.(model).drawn)
	assert.FileExists(t, out)
	assert.Contains(t, m.View(), "Arrivals at mic 0 from source 0")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)

	_, err = NewModel(r, 3, 0, out)
	assert.ErrorIs(t, err, room.ErrConfiguration)
}

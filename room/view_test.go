package room

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

func TestScaleView(t *testing.T) {
	assert := assert.New(t)
	r := simulatedShoeBox(t, V(10, 5, 3))

	view := FloorPlan(r, 1.5, 120, 120)
	view.computeScaleAndTranslation()

	// the room spans 5 x 10 in plane coordinates, inside a 100 x 100 drawing area
	assert.InDelta(10, view.scale, 1e-9)
	p := view.translateAndScale(view.project(V(10, 0, 1.5)))
	assert.GreaterOrEqual(p.X, view.Margin-1e-9)
	assert.GreaterOrEqual(p.Y, view.Margin-1e-9)
}

func TestDrawFloorPlan(t *testing.T) {
	require := require.New(t)
	r := simulatedShoeBox(t, V(6, 4, 3))

	img, err := FloorPlan(r, 1.5, 300, 200).DrawFloorPlan(0, 0, 2)
	require.NoError(err)
	require.Equal(300, img.Bounds().Dx())
	require.Equal(200, img.Bounds().Dy())

	_, err = FloorPlan(r, 1.5, 300, 200).DrawFloorPlan(3, 0, 2)
	require.ErrorIs(err, ErrConfiguration)
}

func TestPlotRIR(t *testing.T) {
	r := simulatedShoeBox(t, V(6, 4, 3))
	rir, err := r.RIR(0, 0)
	require.NoError(t, err)

	p, err := PlotRIR(rir, r.Config().Fs, "rir")
	require.NoError(t, err)
	require.NoError(t, SavePlot(p, filepath.Join(t.TempDir(), "rir.png"), 4*vg.Inch, 3*vg.Inch))

	arrivals, err := r.Arrivals(0, 0)
	require.NoError(t, err)
	p, err = PlotArrivals(arrivals, "arrivals")
	require.NoError(t, err)
	require.NoError(t, SavePlot(p, filepath.Join(t.TempDir(), "arrivals.png"), 4*vg.Inch, 3*vg.Inch))
}

package room

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fogleman/gg"
	"github.com/fogleman/pt/pt"
)

// View draws a section of a room through Plane onto an XSize by YSize image.
type View struct {
	Room  *Room
	XSize int
	YSize int
	Plane Plane
	// Margin around the drawing, in pixels
	Margin float64
	// These cache the values needed to scale and translate from the scene to the requested image size
	scale      float64
	xTranslate float64
	yTranslate float64
}

// FloorPlan is a view of the horizontal section of r at height z
func FloorPlan(r *Room, z float64, xSize, ySize int) *View {
	return &View{
		Room:   r,
		XSize:  xSize,
		YSize:  ySize,
		Plane:  MakePlane(V(0, 0, z), V(0, 0, 1)),
		Margin: 10,
	}
}

func (view *View) project(v pt.Vector) Point2D {
	return To2D(view.Plane.Project(v))
}

// BoundingBox returns the extent of the room section, sources and microphones in plane coordinates
func (view *View) BoundingBox() (XMin, XMax, YMin, YMax float64) {
	XMin, YMin = math.Inf(1), math.Inf(1)
	XMax, YMax = math.Inf(-1), math.Inf(-1)
	grow := func(p Point2D) {
		XMin = math.Min(XMin, p.X)
		XMax = math.Max(XMax, p.X)
		YMin = math.Min(YMin, p.Y)
		YMax = math.Max(YMax, p.Y)
	}
	for _, s := range view.Room.sources {
		grow(view.project(s.Position))
	}
	for _, m := range view.Room.mics {
		grow(view.project(m.Position))
	}
	for _, path := range view.Plane.MeshToPath(view.Room.mesh) {
		pXMin, pXMax, pYMin, pYMax := path.BoundingBox()
		grow(Point2D{pXMin, pYMin})
		grow(Point2D{pXMax, pYMax})
	}
	return
}

func (view *View) computeScaleAndTranslation() {
	XMin, XMax, YMin, YMax := view.BoundingBox()
	view.xTranslate = -XMin
	view.yTranslate = -YMin
	w := float64(view.XSize) - 2*view.Margin
	h := float64(view.YSize) - 2*view.Margin
	view.scale = math.Min(w/(XMax-XMin), h/(YMax-YMin))
}

func (view *View) translateAndScale(p Point2D) Point2D {
	if view.scale == 0 {
		view.computeScaleAndTranslation()
	}
	return p.Translate(view.xTranslate, view.yTranslate).Scale(view.scale).Translate(view.Margin, view.Margin)
}

// DrawFloorPlan draws the room section, every source and microphone, and the
// reflection paths of the image sources of pair (mic, src) up to maxOrder.
// Path opacity follows the arrival energy.
func (view *View) DrawFloorPlan(mic, src, maxOrder int) (image.Image, error) {
	return view.DrawArrivals(mic, src, func(_ int, a Arrival) bool {
		return a.Order > 0 && a.Order <= maxOrder
	})
}

// DrawArrivals is DrawFloorPlan with the arrivals to draw chosen by keep.
func (view *View) DrawArrivals(mic, src int, keep func(i int, a Arrival) bool) (image.Image, error) {
	c := gg.NewContext(view.XSize, view.YSize)
	c.SetColor(color.White)
	c.Clear()

	c.SetColor(color.Black)
	c.SetLineWidth(3)
	for _, lines := range view.Plane.MeshToPath(view.Room.mesh) {
		for i := 0; i < len(lines)-1; i++ {
			p1 := view.translateAndScale(lines[i])
			p2 := view.translateAndScale(lines[i+1])
			c.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
		}
	}
	c.Stroke()

	arrivals, err := view.Room.Arrivals(mic, src)
	if err != nil {
		return nil, err
	}
	loudest := 0.0
	for _, a := range arrivals {
		loudest = math.Max(loudest, maxOf(a.Energy))
	}
	c.SetLineWidth(1)
	for i, a := range arrivals {
		if !keep(i, a) {
			continue
		}
		path, err := view.Room.ReflectionPath(mic, src, i)
		if err != nil {
			return nil, err
		}
		// -60 dB below the loudest arrival is transparent
		alpha := math.Max(0, 1+toDB(maxOf(a.Energy)/loudest)/60)
		c.SetRGBA(0.8, 0.1, 0.1, alpha)
		p1 := view.translateAndScale(view.project(path[0]))
		for _, v := range path[1:] {
			p2 := view.translateAndScale(view.project(v))
			c.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
			p1 = p2
		}
		c.Stroke()
	}

	c.SetRGB(0.1, 0.3, 0.9)
	for _, s := range view.Room.sources {
		p := view.translateAndScale(view.project(s.Position))
		c.DrawRectangle(p.X-4, p.Y-4, 8, 8)
		c.Fill()
	}
	c.SetRGB(0.1, 0.6, 0.2)
	for _, m := range view.Room.mics {
		p := view.translateAndScale(view.project(m.Position))
		c.DrawCircle(p.X, p.Y, 4)
		c.Fill()
	}
	return c.Image(), nil
}

// SaveFloorPlan draws the floor plan and writes it to a PNG file
func (view *View) SaveFloorPlan(path string, mic, src, maxOrder int) error {
	img, err := view.DrawFloorPlan(mic, src, maxOrder)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

// PlotRIR plots an impulse response sampled at fs against time in milliseconds
func PlotRIR(rir []float64, fs float64, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "Amplitude"

	xys := make(plotter.XYs, len(rir))
	for i, v := range rir {
		xys[i].X = float64(i) / fs / MS
		xys[i].Y = v
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	p.Add(line)
	return p, nil
}

// PlotArrivals plots the energy of every image source arrival in dB relative to
// the direct sound against its delay after the direct sound.
func PlotArrivals(arrivals []Arrival, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Delay after direct sound (ms)"
	p.Y.Label.Text = "Reflection energy (dB)"

	direct := -1
	for i, a := range arrivals {
		if a.Order == 0 {
			direct = i
		}
	}
	var pts plotter.XYs
	for i, a := range arrivals {
		if i == direct {
			continue
		}
		var x, y float64
		if direct >= 0 {
			x = (a.Time - arrivals[direct].Time) / MS
			y = toDB(maxOf(a.Energy) / maxOf(arrivals[direct].Energy))
		} else {
			x = a.Time / MS
			y = toDB(maxOf(a.Energy))
		}
		if math.IsInf(y, 0) || math.IsNaN(y) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	p.Add(scatter)
	return p, nil
}

// SavePlot writes p to path; the format follows the file extension
func SavePlot(p *plot.Plot, path string, width, height vg.Length) error {
	return p.Save(width, height, path)
}

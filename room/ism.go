package room

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/pt/pt"
)

// Points closer than this to a wall plane count as lying on it
const geomEps = 1e-9

// Hits closer than this to a segment end point do not occlude it
const occlusionEps = 1e-6

// Images of the same order closer than this are the same arrival
const duplicateEps = 1e-6

// ImageSource is a mirror image of a source.
type ImageSource struct {
	Position pt.Vector
	// Number of reflections
	Order int
	// Wall of the last reflection, -1 for the source itself and for shoebox images
	Wall int
	// Index of the image this one was mirrored from, -1 when not tracked
	Parent int
	// Energy attenuation per band, the product of (1 - absorption) over all reflections
	Attenuation []float64

	// shoebox lattice cell
	cell [3]int
}

// ImageSet holds the image sources of one source.
type ImageSet struct {
	Images []ImageSource
	// Highest order generated
	MaxOrder int
	// Generation stopped at MaxImageSources
	Truncated bool
}

// Walls returns the sequence of walls that generated image i, first reflection first.
// Shoebox images do not record their sequence; use Room.ReflectionPath.
func (s *ImageSet) Walls(i int) []int {
	var walls []int
	for i >= 0 && s.Images[i].Wall >= 0 {
		walls = append(walls, s.Images[i].Wall)
		i = s.Images[i].Parent
	}
	for l, r := 0, len(walls)-1; l < r; l, r = l+1, r-1 {
		walls[l], walls[r] = walls[r], walls[l]
	}
	return walls
}

// Arrival is an image source seen from a microphone.
type Arrival struct {
	// Index into the source's ImageSet
	Image    int
	Order    int
	Distance float64
	// Arrival time in seconds
	Time float64
	// Energy per band at the microphone, including spreading, wall, air and directivity losses
	Energy []float64
}

// Amplitude returns the pressure amplitude of band b
func (a Arrival) Amplitude(b int) float64 {
	return math.Sqrt(a.Energy[b])
}

func maxOf(x []float64) float64 {
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	return m
}

// orderBounds returns the order cap and whether the order is picked automatically
func (r *Room) orderBounds() (int, bool) {
	if r.cfg.MaxOrder < 0 {
		return r.cfg.MaxAutoOrder, true
	}
	return r.cfg.MaxOrder, false
}

// distanceToBox is a lower bound on the distance from p to any microphone
func (r *Room) distanceToBox(p pt.Vector) float64 {
	d := p.Max(r.box.Min).Min(r.box.Max)
	return p.Sub(d).Length()
}

// keepImage applies the energy threshold of the automatic order
func (r *Room) keepImage(pos pt.Vector, att []float64, auto bool) bool {
	if maxOf(att) <= 0 {
		return false
	}
	if !auto {
		return true
	}
	d := r.distanceToBox(pos)
	strongest := 0.0
	for b, a := range att {
		strongest = math.Max(strongest, a*math.Exp(-r.air[b]*d))
	}
	return strongest >= fromDB(r.cfg.ISMEnergyThresholdDB)
}

func (r *Room) directImage(src int) ImageSource {
	att := make([]float64, r.bands.Len())
	for b := range att {
		att[b] = 1
	}
	return ImageSource{Position: r.sources[src].Position, Wall: -1, Parent: -1, Attenuation: att}
}

// generateImages mirrors the source across the walls.
//
// The image slice doubles as a FIFO work queue so that images come out
// sorted by order, and truncation at MaxImageSources drops the highest orders.
func (r *Room) generateImages(src int) (*ImageSet, error) {
	maxOrder, auto := r.orderBounds()
	maxDist := r.cfg.MaxRIRLength * r.cfg.SpeedOfSound
	set := &ImageSet{Images: []ImageSource{r.directImage(src)}}

	for i := 0; i < len(set.Images); i++ {
		parent := set.Images[i]
		if parent.Order >= maxOrder {
			continue
		}
		for w, wall := range r.walls {
			if w == parent.Wall || wall.Side(parent.Position) >= -geomEps {
				continue
			}
			pos := wall.Reflect(parent.Position)
			if r.distanceToBox(pos) > maxDist {
				continue
			}
			att := make([]float64, len(parent.Attenuation))
			for b := range att {
				att[b] = parent.Attenuation[b] * (1 - wall.absorption[b])
			}
			if !r.keepImage(pos, att, auto) {
				continue
			}
			if len(set.Images) >= r.cfg.MaxImageSources {
				set.Truncated = true
				return set, fmt.Errorf("%w: more than %d image sources", ErrResourceLimit, r.cfg.MaxImageSources)
			}
			set.Images = append(set.Images, ImageSource{
				Position:    pos,
				Order:       parent.Order + 1,
				Wall:        w,
				Parent:      i,
				Attenuation: att,
			})
			set.MaxOrder = parent.Order + 1
		}
	}
	return set, nil
}

// latticeCoord is the image coordinate along one axis of a shoebox of length l
func latticeCoord(m int, l, s float64) float64 {
	if m%2 == 0 {
		return float64(m)*l + s
	}
	return float64(m+1)*l - s
}

// latticeReflections returns how often an image in cell m reflects off the low and the high wall
func latticeReflections(m int) (low, high int) {
	if m >= 0 {
		return m / 2, (m + 1) / 2
	}
	return (-m + 1) / 2, -m / 2
}

// generateLattice enumerates the images of a shoebox room order by order.
// Walls are ordered west, east, south, north, floor, ceiling.
func (r *Room) generateLattice(src int) (*ImageSet, error) {
	maxOrder, auto := r.orderBounds()
	maxDist := r.cfg.MaxRIRLength * r.cfg.SpeedOfSound
	s := r.sources[src].Position
	dims := [3]float64{r.dims.X, r.dims.Y, r.dims.Z}
	pos := [3]float64{s.X, s.Y, s.Z}
	set := &ImageSet{Images: []ImageSource{r.directImage(src)}}

	for order := 1; order <= maxOrder; order++ {
		kept := 0
		for mx := -order; mx <= order; mx++ {
			ry := order - abs(mx)
			for my := -ry; my <= ry; my++ {
				rz := ry - abs(my)
				zs := []int{-rz, rz}
				if rz == 0 {
					zs = zs[:1]
				}
				for _, mz := range zs {
					cell := [3]int{mx, my, mz}
					var p [3]float64
					att := make([]float64, r.bands.Len())
					for b := range att {
						att[b] = 1
					}
					for axis, m := range cell {
						p[axis] = latticeCoord(m, dims[axis], pos[axis])
						low, high := latticeReflections(m)
						lw, hw := r.walls[2*axis], r.walls[2*axis+1]
						for b := range att {
							att[b] *= math.Pow(1-lw.absorption[b], float64(low)) * math.Pow(1-hw.absorption[b], float64(high))
						}
					}
					img := V(p[0], p[1], p[2])
					if r.distanceToBox(img) > maxDist || !r.keepImage(img, att, auto) {
						continue
					}
					if len(set.Images) >= r.cfg.MaxImageSources {
						set.Truncated = true
						return set, fmt.Errorf("%w: more than %d image sources", ErrResourceLimit, r.cfg.MaxImageSources)
					}
					set.Images = append(set.Images, ImageSource{
						Position:    img,
						Order:       order,
						Wall:        -1,
						Parent:      -1,
						Attenuation: att,
						cell:        cell,
					})
					set.MaxOrder = order
					kept++
				}
			}
		}
		if kept == 0 {
			// every image of the next order is weaker or farther than one of this order
			break
		}
	}
	return set, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// occluded reports whether a wall other than skip1 and skip2 blocks the segment a-b
func (r *Room) occluded(a, b pt.Vector, skip1, skip2 int) bool {
	d := b.Sub(a).Length()
	if d < occlusionEps {
		return false
	}
	dir := b.Sub(a).DivScalar(d)
	t0 := 0.0
	for i := 0; i < 16; i++ {
		hit := r.mesh.Intersect(pt.Ray{Origin: a.Add(dir.MulScalar(t0)), Direction: dir})
		if !hit.Ok() {
			return false
		}
		t := t0 + hit.T
		if t >= d-occlusionEps {
			return false
		}
		w := r.wallOf(hit)
		if w != skip1 && w != skip2 && t > occlusionEps {
			return true
		}
		t0 = t
	}
	return false
}

// backTrace follows image i from the microphone back to the source, checking
// every reflection point against its wall and every leg for occlusion.
// The returned path runs from the source to the microphone.
func (r *Room) backTrace(set *ImageSet, i int, mic pt.Vector) ([]pt.Vector, bool) {
	path := []pt.Vector{mic}
	p := mic
	prevWall := -1
	for set.Images[i].Parent >= 0 {
		img := set.Images[i]
		q, ok := r.walls[img.Wall].IntersectSegment(p, img.Position)
		if !ok || r.occluded(p, q, prevWall, img.Wall) {
			return nil, false
		}
		path = append(path, q)
		p, prevWall, i = q, img.Wall, img.Parent
	}
	if r.occluded(p, set.Images[i].Position, prevWall, -1) {
		return nil, false
	}
	path = append(path, set.Images[i].Position)
	for l, k := 0, len(path)-1; l < k; l, k = l+1, k-1 {
		path[l], path[k] = path[k], path[l]
	}
	return path, true
}

// fold maps an unfolded lattice coordinate back into [0, l]
func fold(x, l float64) float64 {
	x = math.Mod(x, 2*l)
	if x < 0 {
		x += 2 * l
	}
	if x > l {
		x = 2*l - x
	}
	return x
}

// latticePath unfolds the straight line from a shoebox image to the microphone
// into its reflection points. The path runs from the source to the microphone.
func (r *Room) latticePath(img ImageSource, mic pt.Vector) []pt.Vector {
	dims := [3]float64{r.dims.X, r.dims.Y, r.dims.Z}
	a := [3]float64{img.Position.X, img.Position.Y, img.Position.Z}
	b := [3]float64{mic.X, mic.Y, mic.Z}
	var ts []float64
	for axis, m := range img.cell {
		lo, hi := 1, m
		if m < 0 {
			lo, hi = m+1, 0
		}
		for k := lo; k <= hi; k++ {
			ts = append(ts, (float64(k)*dims[axis]-a[axis])/(b[axis]-a[axis]))
		}
	}
	sort.Float64s(ts)
	path := []pt.Vector{V(fold(a[0], dims[0]), fold(a[1], dims[1]), fold(a[2], dims[2]))}
	for _, t := range ts {
		var q [3]float64
		for axis := range q {
			q[axis] = fold(a[axis]+(b[axis]-a[axis])*t, dims[axis])
		}
		path = append(path, V(q[0], q[1], q[2]))
	}
	return append(path, mic)
}

// latticeEmission is the direction in which the source emits the sound that reaches mic through img
func latticeEmission(img ImageSource, mic pt.Vector) pt.Vector {
	d := mic.Sub(img.Position)
	c := [3]float64{d.X, d.Y, d.Z}
	for axis, m := range img.cell {
		if m%2 != 0 {
			c[axis] = -c[axis]
		}
	}
	return V(c[0], c[1], c[2])
}

// isDuplicateArrival reports whether an accepted arrival already comes from an image
// of the same order at the position of img
func isDuplicateArrival(set *ImageSet, arrivals []Arrival, seen map[int64][]int, img ImageSource, d float64) bool {
	k := int64(math.Round(d / duplicateEps))
	for _, bucket := range [][]int{seen[k-1], seen[k], seen[k+1]} {
		for _, a := range bucket {
			other := set.Images[arrivals[a].Image]
			if other.Order == img.Order && other.Position.Sub(img.Position).Length() <= duplicateEps {
				return true
			}
		}
	}
	return false
}

// computeArrivals returns the images of src visible from mic with their energies
func (r *Room) computeArrivals(src int, set *ImageSet, mic pt.Vector) ([]Arrival, error) {
	source := r.sources[src]
	maxDist := r.cfg.MaxRIRLength * r.cfg.SpeedOfSound
	var arrivals []Arrival
	// arrivals indexed by distance bucket, for coplanar walls that mirror to the same image
	seen := make(map[int64][]int)
	for i, img := range set.Images {
		d := img.Position.Sub(mic).Length()
		if d > maxDist {
			continue
		}
		var emit pt.Vector
		if r.isShoeBox {
			emit = latticeEmission(img, mic)
		} else {
			path, ok := r.backTrace(set, i, mic)
			if !ok {
				continue
			}
			if isDuplicateArrival(set, arrivals, seen, img, d) {
				continue
			}
			k := int64(math.Round(d / duplicateEps))
			seen[k] = append(seen[k], len(arrivals))
			emit = path[1].Sub(path[0])
		}
		if d < geomEps {
			return nil, fmt.Errorf("%w: microphone coincides with image source %d", ErrNumerical, i)
		}
		gain := source.gain(emit)
		spread := 1 / (16 * math.Pi * math.Pi * d * d)
		energy := make([]float64, len(img.Attenuation))
		for b := range energy {
			energy[b] = img.Attenuation[b] * math.Exp(-r.air[b]*d) * gain * spread
		}
		arrivals = append(arrivals, Arrival{
			Image:    i,
			Order:    img.Order,
			Distance: d,
			Time:     d / r.cfg.SpeedOfSound,
			Energy:   energy,
		})
	}
	return arrivals, nil
}

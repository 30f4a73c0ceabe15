package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/fogleman/pt/pt"
	"golang.org/x/sync/errgroup"
)

// State is the stage a Room has reached.
type State int

const (
	StateUninitialized State = iota
	StateWallsSet
	StatePopulated
	StateSimulated
	StateRIRAvailable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWallsSet:
		return "walls set"
	case StatePopulated:
		return "populated"
	case StateSimulated:
		return "simulated"
	case StateRIRAvailable:
		return "RIR available"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Names of the walls of a shoebox room, in lattice order
var ShoeBoxWalls = []string{"west", "east", "south", "north", "floor", "ceiling"}

// pairData caches the results for one (microphone, source) pair
type pairData struct {
	arrivals []Arrival
	hist     *Histogram
	rir      []float64

	ismDone, rtDone, rirDone bool
	ismErr, rtErr, rirErr    error
}

func (p *pairData) err() error {
	return errors.Join(p.ismErr, p.rtErr, p.rirErr)
}

// sourceData caches the per source results
type sourceData struct {
	images    *ImageSet
	imagesErr error
	ledger    *Ledger
}

// Room owns the walls, sources and microphones of a simulation and runs it.
//
// A Room is not safe for concurrent use.
type Room struct {
	cfg    Config
	logger *slog.Logger

	walls     []*Wall
	isShoeBox bool
	dims      pt.Vector
	mesh      *pt.Mesh
	triWall   map[*pt.Triangle]int
	box       pt.Box
	volume    float64
	bands     Bands
	// air absorption per band in 1/m, zero when disabled
	air []float64

	state   State
	sources []*Source
	mics    []Microphone
	// number of microphone arrays added, for naming
	arrays  int
	srcData []*sourceData
	// pairs[mic][src]
	pairs   [][]*pairData
	signals [][]float64
}

// New builds a room from copies of walls. The walls must enclose a volume;
// their normals are flipped when they point inwards.
func New(walls []*Wall, cfg Config) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(walls) < 4 {
		return nil, geometryErrorf("a room needs at least 4 walls, got %d", len(walls))
	}
	owned := make([]*Wall, len(walls))
	for i, w := range walls {
		if w == nil {
			return nil, geometryErrorf("wall %d is nil", i)
		}
		owned[i] = w.clone()
	}
	walls = owned
	r := &Room{
		cfg:    cfg,
		logger: cfg.logger(),
		walls:  walls,
	}

	volume := r.signedVolume()
	size := 0.0
	for _, w := range walls {
		size = math.Max(size, w.size)
	}
	if math.Abs(volume) <= planarityTolerance*size*size*size {
		return nil, geometryErrorf("walls do not enclose a volume")
	}
	if volume < 0 {
		for _, w := range walls {
			w.flip()
		}
		volume = -volume
	}
	r.volume = volume

	if err := r.setBands(); err != nil {
		return nil, err
	}
	r.buildMesh()
	r.state = StateWallsSet
	r.logger.Debug("room built",
		slog.Int("walls", len(walls)),
		slog.Float64("volume", r.volume),
		slog.Float64("surface", r.SurfaceArea()),
		slog.Int("bands", r.bands.Len()))
	return r, nil
}

// NewShoeBox builds a rectangular room spanning the origin to dims.
//
// materials is keyed by wall name (see ShoeBoxWalls); missing walls use "default".
// Image sources of shoebox rooms are enumerated on a lattice.
func NewShoeBox(dims pt.Vector, materials map[string]Material, cfg Config) (*Room, error) {
	if !isFinite(dims) || dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return nil, geometryErrorf("shoebox dimensions must be positive, got %v", dims)
	}
	l, w, h := dims.X, dims.Y, dims.Z
	corners := [][]pt.Vector{
		{V(0, 0, 0), V(0, 0, h), V(0, w, h), V(0, w, 0)},
		{V(l, 0, 0), V(l, w, 0), V(l, w, h), V(l, 0, h)},
		{V(0, 0, 0), V(l, 0, 0), V(l, 0, h), V(0, 0, h)},
		{V(0, w, 0), V(0, w, h), V(l, w, h), V(l, w, 0)},
		{V(0, 0, 0), V(0, w, 0), V(l, w, 0), V(l, 0, 0)},
		{V(0, 0, h), V(l, 0, h), V(l, w, h), V(0, w, h)},
	}
	walls := make([]*Wall, len(ShoeBoxWalls))
	for i, name := range ShoeBoxWalls {
		m, ok := materials[name]
		if !ok {
			if m, ok = materials["default"]; !ok {
				return nil, configErrorf("no material for wall %q and no default", name)
			}
		}
		wall, err := NewWall(name, corners[i], m)
		if err != nil {
			return nil, err
		}
		walls[i] = wall
	}
	r, err := New(walls, cfg)
	if err != nil {
		return nil, err
	}
	r.isShoeBox = true
	r.dims = dims
	return r, nil
}

// FromTriangles builds a room with one wall per triangle, scaling every vertex by scale.
func FromTriangles(tris [][3]pt.Vector, scale float64, material Material, cfg Config) (*Room, error) {
	if !(scale > 0) {
		return nil, configErrorf("mesh scale must be positive, got %v", scale)
	}
	walls := make([]*Wall, 0, len(tris))
	for i, t := range tris {
		w, err := NewWall(fmt.Sprintf("triangle %d", i), []pt.Vector{
			t[0].MulScalar(scale), t[1].MulScalar(scale), t[2].MulScalar(scale),
		}, material)
		if err != nil {
			return nil, err
		}
		walls = append(walls, w)
	}
	return New(walls, cfg)
}

// signedVolume is positive when the wall normals point outwards
func (r *Room) signedVolume() float64 {
	v := 0.0
	for _, w := range r.walls {
		for _, t := range w.Triangles() {
			v += t[0].Dot(t[1].Cross(t[2]))
		}
	}
	return v / 6
}

// multiband reports whether any material or the air needs more than one band
func (r *Room) multiband() bool {
	if r.cfg.AirAbsorption {
		return true
	}
	for _, w := range r.walls {
		if !w.Material.IsBroadband() {
			return true
		}
	}
	return false
}

// setBands picks the band layout and resamples every wall material onto it
func (r *Room) setBands() error {
	if r.multiband() {
		bands, err := NewOctaveBands(r.cfg.BandBase, r.cfg.Fs, r.cfg.NumBands)
		if err != nil {
			return err
		}
		r.bands = bands
	} else {
		r.bands = Bands{Centers: []float64{1000}, Fs: r.cfg.Fs}
	}
	for _, w := range r.walls {
		w.absorption, w.scattering = w.Material.Resample(r.bands)
	}
	r.air = make([]float64, r.bands.Len())
	if r.cfg.AirAbsorption {
		r.air = r.bands.AirAbsorption()
	}
	return nil
}

func (r *Room) buildMesh() {
	var tris []*pt.Triangle
	r.triWall = make(map[*pt.Triangle]int)
	for i, w := range r.walls {
		for _, t := range w.Triangles() {
			tri := pt.NewTriangle(t[0], t[1], t[2], pt.Vector{}, pt.Vector{}, pt.Vector{}, pt.Material{})
			r.triWall[tri] = i
			tris = append(tris, tri)
		}
	}
	r.mesh = pt.NewMesh(tris)
	r.mesh.Compile()
	r.box = r.mesh.BoundingBox()
}

// wallOf returns the index of the wall a mesh hit belongs to
func (r *Room) wallOf(hit pt.Hit) int {
	tri, ok := hit.Shape.(*pt.Triangle)
	if !ok {
		return -1
	}
	w, ok := r.triWall[tri]
	if !ok {
		return -1
	}
	return w
}

// Directions of the rays used for the inside test, picked to miss mesh edges of axis aligned rooms
var insideProbes = []pt.Vector{
	V(0.4817, 0.6143, 0.6249),
	V(-0.7071, 0.3179, -0.6316),
	V(0.2113, -0.9038, 0.3721),
}

// Inside reports whether p lies strictly inside the room
func (r *Room) Inside(p pt.Vector) bool {
	if !isFinite(p) {
		return false
	}
	if r.isShoeBox {
		return p.X > 0 && p.Y > 0 && p.Z > 0 && p.X < r.dims.X && p.Y < r.dims.Y && p.Z < r.dims.Z
	}
	if p.X <= r.box.Min.X || p.Y <= r.box.Min.Y || p.Z <= r.box.Min.Z ||
		p.X >= r.box.Max.X || p.Y >= r.box.Max.Y || p.Z >= r.box.Max.Z {
		return false
	}
	votes := 0
	for _, dir := range insideProbes {
		if r.crossings(p, dir.Normalize())%2 == 1 {
			votes++
		}
	}
	return votes >= 2
}

func (r *Room) crossings(p, dir pt.Vector) int {
	n := 0
	origin := p
	for range 4 * len(r.walls) {
		hit := r.mesh.Intersect(pt.Ray{Origin: origin, Direction: dir})
		if !hit.Ok() {
			break
		}
		n++
		origin = origin.Add(dir.MulScalar(hit.T))
	}
	return n
}

func (r *Room) checkReady() error {
	if r == nil || r.state == StateUninitialized {
		return fmt.Errorf("%w: room has no walls", ErrState)
	}
	return nil
}

// AddSource adds a source and returns its index
func (r *Room) AddSource(s Source) (int, error) {
	if err := r.checkReady(); err != nil {
		return 0, err
	}
	if !r.Inside(s.Position) {
		return 0, geometryErrorf("source at %v is outside the room", s.Position)
	}
	if s.Delay < 0 || math.IsNaN(s.Delay) || math.IsInf(s.Delay, 0) {
		return 0, configErrorf("source delay must be a non-negative number of seconds, got %v", s.Delay)
	}
	src := s
	r.sources = append(r.sources, &src)
	r.srcData = append(r.srcData, &sourceData{})
	for m := range r.pairs {
		r.pairs[m] = append(r.pairs[m], &pairData{})
	}
	r.populated()
	return len(r.sources) - 1, nil
}

// AddMicrophone adds a microphone and returns its index
func (r *Room) AddMicrophone(m Microphone) (int, error) {
	if err := r.checkReady(); err != nil {
		return 0, err
	}
	if !r.Inside(m.Position) {
		return 0, geometryErrorf("microphone at %v is outside the room", m.Position)
	}
	r.mics = append(r.mics, m)
	row := make([]*pairData, len(r.sources))
	for s := range row {
		row[s] = &pairData{}
	}
	r.pairs = append(r.pairs, row)
	r.populated()
	return len(r.mics) - 1, nil
}

// AddMicrophoneArray adds every microphone of a, or none of them
func (r *Room) AddMicrophoneArray(a MicrophoneArray) ([]int, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	for i, p := range a.Positions {
		if !r.Inside(p) {
			return nil, geometryErrorf("microphone %d of the array at %v is outside the room", i, p)
		}
	}
	idx := make([]int, len(a.Positions))
	for i, p := range a.Positions {
		var err error
		idx[i], err = r.AddMicrophone(Microphone{Name: fmt.Sprintf("array %d mic %d", r.arrays, i), Position: p})
		if err != nil {
			return nil, err
		}
	}
	r.arrays++
	return idx, nil
}

// MoveMicrophone relocates microphone i. Only its RIRs are recomputed by the next simulation.
func (r *Room) MoveMicrophone(i int, p pt.Vector) error {
	if i < 0 || i >= len(r.mics) {
		return configErrorf("no microphone %d", i)
	}
	if !r.Inside(p) {
		return geometryErrorf("microphone at %v is outside the room", p)
	}
	r.mics[i].Position = p
	for s := range r.pairs[i] {
		r.pairs[i][s] = &pairData{}
	}
	r.populated()
	return nil
}

// MoveSource relocates source i. Only its RIRs are recomputed by the next simulation.
func (r *Room) MoveSource(i int, p pt.Vector) error {
	if i < 0 || i >= len(r.sources) {
		return configErrorf("no source %d", i)
	}
	if !r.Inside(p) {
		return geometryErrorf("source at %v is outside the room", p)
	}
	r.sources[i].Position = p
	r.srcData[i] = &sourceData{}
	for m := range r.pairs {
		r.pairs[m][i] = &pairData{}
	}
	r.populated()
	return nil
}

// SetSourceSignal replaces the signal of source i. RIRs are kept.
func (r *Room) SetSourceSignal(i int, signal []float64, delay float64) error {
	if i < 0 || i >= len(r.sources) {
		return configErrorf("no source %d", i)
	}
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		return configErrorf("source delay must be a non-negative number of seconds, got %v", delay)
	}
	r.sources[i].Signal = signal
	r.sources[i].Delay = delay
	r.signals = nil
	return nil
}

// SetWallMaterial replaces the material of wall i and discards every cached result
func (r *Room) SetWallMaterial(i int, m Material) error {
	if err := r.checkReady(); err != nil {
		return err
	}
	if i < 0 || i >= len(r.walls) {
		return configErrorf("no wall %d", i)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	r.walls[i].Material = m
	if err := r.setBands(); err != nil {
		return err
	}
	for s := range r.srcData {
		r.srcData[s] = &sourceData{}
	}
	for m := range r.pairs {
		for s := range r.pairs[m] {
			r.pairs[m][s] = &pairData{}
		}
	}
	r.populated()
	return nil
}

// populated drops the state back after a change
func (r *Room) populated() {
	r.signals = nil
	if len(r.sources) > 0 || len(r.mics) > 0 {
		r.state = StatePopulated
	}
}

// updateState advances the state once every pair has finished a stage
func (r *Room) updateState() {
	simulated, available := true, true
	for _, row := range r.pairs {
		for _, p := range row {
			simulated = simulated && p.ismDone && p.rtDone
			available = available && p.rirDone
		}
	}
	switch {
	case simulated && available:
		r.state = StateRIRAvailable
	case simulated:
		r.state = StateSimulated
	default:
		r.state = StatePopulated
	}
}

func (r *Room) checkPopulated() error {
	if err := r.checkReady(); err != nil {
		return err
	}
	if len(r.sources) == 0 || len(r.mics) == 0 {
		return fmt.Errorf("%w: room needs at least one source and one microphone", ErrState)
	}
	return nil
}

// imageSet returns the cached image sources of src, generating them when needed.
// A truncated set is returned together with its ErrResourceLimit.
func (r *Room) imageSet(src int) (*ImageSet, error) {
	d := r.srcData[src]
	if d.images == nil {
		if r.isShoeBox {
			d.images, d.imagesErr = r.generateLattice(src)
		} else {
			d.images, d.imagesErr = r.generateImages(src)
		}
		r.logger.Debug("image sources generated",
			slog.Int("source", src),
			slog.Int("images", len(d.images.Images)),
			slog.Int("max_order", d.images.MaxOrder),
			slog.Bool("truncated", d.images.Truncated))
	}
	return d.images, d.imagesErr
}

// pairErrors wraps the errors of every pair that has one
func (r *Room) pairErrors(get func(p *pairData) error) error {
	var errs []error
	for m, row := range r.pairs {
		for s, p := range row {
			if err := get(p); err != nil {
				errs = append(errs, &PairError{Mic: m, Source: s, Err: err})
			}
		}
	}
	return errors.Join(errs...)
}

// ImageSourceModel computes the visible image sources of every pair that is not up to date.
// Failing pairs are reported as *PairError; the others are complete.
func (r *Room) ImageSourceModel() error {
	if err := r.checkPopulated(); err != nil {
		return err
	}
	var g errgroup.Group
	g.SetLimit(r.cfg.workers())
	for s := range r.sources {
		var stale []int
		for m := range r.mics {
			if !r.pairs[m][s].ismDone {
				stale = append(stale, m)
			}
		}
		if len(stale) == 0 {
			continue
		}
		if !r.cfg.UseISM {
			for _, m := range stale {
				r.pairs[m][s].ismDone = true
			}
			continue
		}
		// each task only touches the data of its own source
		g.Go(func() error {
			set, setErr := r.imageSet(s)
			for _, m := range stale {
				p := r.pairs[m][s]
				arrivals, err := r.computeArrivals(s, set, r.mics[m].Position)
				p.arrivals = arrivals
				p.ismErr = errors.Join(setErr, err)
				p.ismDone = true
			}
			return nil
		})
	}
	_ = g.Wait()
	r.updateState()
	err := r.pairErrors(func(p *pairData) error { return p.ismErr })
	if err != nil {
		r.logger.Warn("image source model finished with errors", slog.String("error", err.Error()))
	}
	return err
}

// RayTracing traces the rays of every source with stale pairs.
// Only the microphones of stale pairs are recorded; the rays do not depend on them.
func (r *Room) RayTracing(ctx context.Context) error {
	if err := r.checkPopulated(); err != nil {
		return err
	}
	for s := range r.sources {
		var stale []int
		for m := range r.mics {
			if !r.pairs[m][s].rtDone {
				stale = append(stale, m)
			}
		}
		if len(stale) == 0 {
			continue
		}
		if !r.cfg.UseRayTracing {
			for _, m := range stale {
				r.pairs[m][s].rtDone = true
			}
			continue
		}
		hists, ledger, err := r.traceSource(ctx, s, stale)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var srcErr error
		if err != nil {
			srcErr = err
		} else {
			r.srcData[s].ledger = ledger
			if ledger.StoppedByBounces > 0 {
				srcErr = fmt.Errorf("%w: %d rays reached %d bounces", ErrResourceLimit, ledger.StoppedByBounces, r.cfg.MaxBounces)
			}
			r.logger.Debug("rays traced",
				slog.Int("source", s),
				slog.Int("rays", ledger.Rays),
				slog.Int("escaped", ledger.EscapedRays),
				slog.Int("bounce_capped", ledger.StoppedByBounces),
				slog.Float64("imbalance", ledger.Imbalance()))
		}
		for i, m := range stale {
			p := r.pairs[m][s]
			p.rtErr = srcErr
			if hists != nil {
				p.hist = hists[i]
				if !isFiniteHistogram(p.hist) {
					p.rtErr = errors.Join(p.rtErr, fmt.Errorf("%w: histogram is not finite", ErrNumerical))
				}
			}
			p.rtDone = true
		}
	}
	r.updateState()
	err := r.pairErrors(func(p *pairData) error { return p.rtErr })
	if err != nil {
		r.logger.Warn("ray tracing finished with errors", slog.String("error", err.Error()))
	}
	return err
}

func isFiniteHistogram(h *Histogram) bool {
	for _, band := range h.Energy {
		for _, e := range band {
			if math.IsNaN(e) || math.IsInf(e, 0) {
				return false
			}
		}
	}
	return true
}

// ComputeRIR synthesises the RIR of every pair that is not up to date
func (r *Room) ComputeRIR() error {
	if err := r.checkPopulated(); err != nil {
		return err
	}
	if r.state < StateSimulated {
		return fmt.Errorf("%w: ComputeRIR needs a simulated room, state is %v", ErrState, r.state)
	}
	var g errgroup.Group
	g.SetLimit(r.cfg.workers())
	for m, row := range r.pairs {
		for s, p := range row {
			if p.rirDone {
				continue
			}
			g.Go(func() error {
				p.rir, p.rirErr = r.synthesize(m, s, p.arrivals, p.hist)
				p.rirDone = true
				return nil
			})
		}
	}
	_ = g.Wait()
	r.signals = nil
	r.updateState()
	err := r.pairErrors(func(p *pairData) error { return p.rirErr })
	if err != nil {
		r.logger.Warn("RIR synthesis finished with errors", slog.String("error", err.Error()))
	}
	return err
}

// Simulate runs every stage for the stale pairs and convolves the source signals
// into the microphone signals. Per pair errors are joined into the result;
// the pairs without errors are complete.
func (r *Room) Simulate(ctx context.Context) error {
	ismErr := r.ImageSourceModel()
	if errors.Is(ismErr, ErrState) {
		return ismErr
	}
	rtErr := r.RayTracing(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	rirErr := r.ComputeRIR()
	if errors.Is(rirErr, ErrState) {
		return rirErr
	}
	convErr := r.convolveSignals()
	return errors.Join(ismErr, rtErr, rirErr, convErr)
}

// convolveSignals plays every source signal through its RIRs, summed per microphone
func (r *Room) convolveSignals() error {
	fs := r.cfg.Fs
	r.signals = make([][]float64, len(r.mics))
	for m, row := range r.pairs {
		n := 0
		for s, p := range row {
			src := r.sources[s]
			if len(src.Signal) == 0 || len(p.rir) == 0 {
				continue
			}
			n = max(n, int(math.Round(src.Delay*fs))+len(src.Signal)+len(p.rir)-1)
		}
		if n == 0 {
			continue
		}
		out := make([]float64, n)
		for s, p := range row {
			src := r.sources[s]
			if len(src.Signal) == 0 || len(p.rir) == 0 {
				continue
			}
			if err := convolveAt(out, int(math.Round(src.Delay*fs)), src.Signal, p.rir); err != nil {
				return fmt.Errorf("convolving source %d into microphone %d: %w", s, m, err)
			}
		}
		r.signals[m] = out
	}
	return nil
}

func (r *Room) Config() Config {
	return r.cfg
}

func (r *Room) State() State {
	return r.state
}

// Walls returns copies of the room's walls, oriented with normals pointing out
func (r *Room) Walls() []*Wall {
	out := make([]*Wall, len(r.walls))
	for i, w := range r.walls {
		out[i] = w.clone()
	}
	return out
}

func (r *Room) Sources() []Source {
	out := make([]Source, len(r.sources))
	for i, s := range r.sources {
		out[i] = *s
	}
	return out
}

func (r *Room) Microphones() []Microphone {
	return append([]Microphone(nil), r.mics...)
}

func (r *Room) Bands() Bands {
	return r.bands
}

func (r *Room) IsShoeBox() bool {
	return r.isShoeBox
}

// Mesh returns the triangle mesh of the walls
func (r *Room) Mesh() *pt.Mesh {
	return r.mesh
}

func (r *Room) Volume() float64 {
	return r.volume
}

func (r *Room) SurfaceArea() float64 {
	s := 0.0
	for _, w := range r.walls {
		s += w.Area()
	}
	return s
}

func (r *Room) pair(mic, src int) (*pairData, error) {
	if mic < 0 || mic >= len(r.mics) || src < 0 || src >= len(r.sources) {
		return nil, configErrorf("no pair (mic %d, source %d)", mic, src)
	}
	return r.pairs[mic][src], nil
}

// RIR returns the impulse response from source src to microphone mic
func (r *Room) RIR(mic, src int) ([]float64, error) {
	p, err := r.pair(mic, src)
	if err != nil {
		return nil, err
	}
	if !p.rirDone {
		return nil, fmt.Errorf("%w: RIR of mic %d, source %d is not computed", ErrState, mic, src)
	}
	return p.rir, p.rirErr
}

// RIRs returns every impulse response, indexed [mic][src]. Pairs without an RIR are nil.
func (r *Room) RIRs() [][][]float64 {
	rirs := make([][][]float64, len(r.pairs))
	for m, row := range r.pairs {
		rirs[m] = make([][]float64, len(row))
		for s, p := range row {
			rirs[m][s] = p.rir
		}
	}
	return rirs
}

// MicSignals returns the simulated signal of every microphone, nil before Simulate
func (r *Room) MicSignals() [][]float64 {
	return r.signals
}

// ImageSources returns the image sources of src, nil before the image source model ran
func (r *Room) ImageSources(src int) *ImageSet {
	if src < 0 || src >= len(r.srcData) {
		return nil
	}
	return r.srcData[src].images
}

// Arrivals returns the image sources of src visible from mic
func (r *Room) Arrivals(mic, src int) ([]Arrival, error) {
	p, err := r.pair(mic, src)
	if err != nil {
		return nil, err
	}
	return p.arrivals, nil
}

// Histogram returns the ray energy captured by mic from src, nil before ray tracing
func (r *Room) Histogram(mic, src int) *Histogram {
	p, err := r.pair(mic, src)
	if err != nil {
		return nil
	}
	return p.hist
}

// Ledger returns the ray energy ledger of src, nil before ray tracing
func (r *Room) Ledger(src int) *Ledger {
	if src < 0 || src >= len(r.srcData) {
		return nil
	}
	return r.srcData[src].ledger
}

// PairErr returns every error recorded for the pair
func (r *Room) PairErr(mic, src int) error {
	p, err := r.pair(mic, src)
	if err != nil {
		return err
	}
	return p.err()
}

// ReflectionPath returns the points from the source through every reflection to
// the microphone for arrival i of the pair.
func (r *Room) ReflectionPath(mic, src, i int) ([]pt.Vector, error) {
	p, err := r.pair(mic, src)
	if err != nil {
		return nil, err
	}
	set := r.srcData[src].images
	if set == nil || i < 0 || i >= len(p.arrivals) {
		return nil, configErrorf("no arrival %d for mic %d, source %d", i, mic, src)
	}
	img := p.arrivals[i].Image
	micPos := r.mics[mic].Position
	if r.isShoeBox {
		return r.latticePath(set.Images[img], micPos), nil
	}
	path, ok := r.backTrace(set, img, micPos)
	if !ok {
		return nil, fmt.Errorf("%w: arrival %d is no longer visible", ErrState, i)
	}
	return path, nil
}

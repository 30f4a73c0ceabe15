package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-roomsim/room"
)

func vec(v [3]float64) pt.Vector {
	return pt.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Config applies the overrides to room.DefaultConfig
func (s Simulation) Config(logger *slog.Logger) room.Config {
	cfg := room.DefaultConfig()
	cfg.Logger = logger
	if s.SampleRate > 0 {
		cfg.Fs = s.SampleRate
	}
	if s.SpeedOfSound > 0 {
		cfg.SpeedOfSound = s.SpeedOfSound
	}
	if s.MaxOrder != nil {
		cfg.MaxOrder = *s.MaxOrder
	}
	if s.MaxAutoOrder > 0 {
		cfg.MaxAutoOrder = s.MaxAutoOrder
	}
	if s.ISMEnergyThresholdDB < 0 {
		cfg.ISMEnergyThresholdDB = s.ISMEnergyThresholdDB
	}
	if s.MaxImageSources > 0 {
		cfg.MaxImageSources = s.MaxImageSources
	}
	if s.UseISM != nil {
		cfg.UseISM = *s.UseISM
	}
	if s.UseRayTracing != nil {
		cfg.UseRayTracing = *s.UseRayTracing
	}
	if s.NumRays > 0 {
		cfg.NumRays = s.NumRays
	}
	if s.ReceiverRadius > 0 {
		cfg.ReceiverRadius = s.ReceiverRadius
	}
	if s.EnergyThresholdDB < 0 {
		cfg.EnergyThresholdDB = s.EnergyThresholdDB
	}
	if s.TimeThresholdMS > 0 {
		cfg.TimeThreshold = s.TimeThresholdMS * room.MS
	}
	if s.MaxBounces > 0 {
		cfg.MaxBounces = s.MaxBounces
	}
	if s.HistBinSizeMS > 0 {
		cfg.HistBinSize = s.HistBinSizeMS * room.MS
	}
	cfg.AirAbsorption = s.AirAbsorption
	if s.BandBase > 0 {
		cfg.BandBase = s.BandBase
	}
	if s.NumBands > 0 {
		cfg.NumBands = s.NumBands
	}
	if s.FractionalDelayLength > 0 {
		cfg.FractionalDelayLength = s.FractionalDelayLength
	}
	if s.MaxRIRLength > 0 {
		cfg.MaxRIRLength = s.MaxRIRLength
	}
	if s.DecayThresholdDB < 0 {
		cfg.DecayThresholdDB = s.DecayThresholdDB
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.Seed > 0 {
		cfg.Seed = s.Seed
	}
	return cfg
}

// Room converts the material, looking it up in the built-in database when Database is set
func (m Material) Room(name string) (room.Material, error) {
	if m.Database != "" {
		mat, err := room.LookupMaterial(m.Database, m.ScatteringDatabase)
		if err != nil {
			return room.Material{}, err
		}
		mat.Name = name
		return mat, nil
	}
	mat := room.Material{
		Name:        name,
		Absorption:  append([]float64(nil), m.Absorption...),
		Scattering:  append([]float64(nil), m.Scattering...),
		CenterFreqs: append([]float64(nil), m.CenterFreqs...),
	}
	if len(mat.Scattering) == 0 {
		mat.Scattering = []float64{0}
	}
	return mat, mat.Validate()
}

// SurfaceAssignmentMap returns the material of every assigned surface, keyed by surface name
func (c *ExperimentConfig) SurfaceAssignmentMap() (map[string]room.Material, error) {
	out := make(map[string]room.Material, len(c.SurfaceAssignments.Inline))
	for surface, name := range c.SurfaceAssignments.Inline {
		material, ok := c.Materials.Inline[name]
		if !ok {
			return nil, fmt.Errorf("surface %q references undefined material %q: %w", surface, name, room.ErrConfiguration)
		}
		m, err := material.Room(name)
		if err != nil {
			return nil, fmt.Errorf("surface %q: %w", surface, err)
		}
		out[surface] = m
	}
	return out, nil
}

// Create converts the curves; orientation is ignored for listening triangles
func (d *Directivity) Create() (*room.Directivity, error) {
	if d == nil {
		return nil, nil
	}
	orientation := vec(d.Orientation)
	if orientation.Length() == 0 {
		orientation = pt.Vector{X: 1}
	}
	return room.NewDirectivity(d.Horizontal, d.Vertical, orientation)
}

func (lt *ListeningTriangle) Create() room.ListeningTriangle {
	return room.ListeningTriangle{
		ReferencePosition: vec(lt.ReferencePosition),
		ReferenceNormal:   vec(lt.ReferenceNormal),
		DistFromFront:     lt.DistanceFromFront,
		DistFromCenter:    lt.DistanceFromCenter,
		SourceHeight:      lt.SourceHeight,
		ListenHeight:      lt.ListenHeight,
	}
}

// LoadSignal reads a JSON array of samples
func LoadSignal(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signal: %w", err)
	}
	var signal []float64
	if err := json.Unmarshal(data, &signal); err != nil {
		return nil, fmt.Errorf("parsing signal %s: %w", path, err)
	}
	return signal, nil
}

// Build creates the room described by the config and populates it with
// sources and microphones. The config must be merged.
func (c *ExperimentConfig) Build(logger *slog.Logger) (*room.Room, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := c.Simulation.Config(logger)
	materials, err := c.SurfaceAssignmentMap()
	if err != nil {
		return nil, err
	}

	var r *room.Room
	switch {
	case c.Input.ShoeBox != nil:
		box := c.Input.ShoeBox
		dims := vec(box.Dimensions)
		if box.RT60 > 0 {
			absorption, order, err := room.InverseSabine(box.RT60, dims, cfg.SpeedOfSound)
			if err != nil {
				return nil, err
			}
			logger.Info("inverse Sabine", "rt60", box.RT60, "absorption", absorption, "max_order", order)
			uniform := room.NewMaterial(absorption, 0)
			uniform.Name = "sabine"
			materials = map[string]room.Material{"default": uniform}
			if c.Simulation.MaxOrder == nil {
				cfg.MaxOrder = order
			}
		}
		r, err = room.NewShoeBox(dims, materials, cfg)
	case c.Input.Mesh != nil:
		mesh := c.Input.Mesh
		scale := mesh.Scale
		if scale == 0 {
			scale = 1
		}
		switch mesh.format() {
		case "3mf":
			r, err = room.Load3MF(mesh.Path, scale, materials, cfg)
		case "stl":
			def, ok := materials["default"]
			if !ok {
				return nil, fmt.Errorf("stl meshes need a default surface assignment: %w", room.ErrConfiguration)
			}
			r, err = room.LoadSTL(mesh.Path, scale, def, cfg)
		default:
			return nil, fmt.Errorf("unsupported mesh format %q: %w", mesh.format(), room.ErrConfiguration)
		}
	default:
		return nil, fmt.Errorf("no room geometry: %w", room.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}

	for i, s := range c.Sources {
		src := room.Source{Position: vec(s.Position), Delay: s.Delay}
		if s.Signal != "" {
			if src.Signal, err = LoadSignal(s.Signal); err != nil {
				return nil, fmt.Errorf("source %d: %w", i, err)
			}
		}
		if src.Directivity, err = s.Directivity.Create(); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		if _, err := r.AddSource(src); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
	}
	for i, m := range c.Microphones {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mic %d", i)
		}
		if _, err := r.AddMicrophone(room.Microphone{Name: name, Position: vec(m.Position)}); err != nil {
			return nil, fmt.Errorf("microphone %d: %w", i, err)
		}
	}
	for i, a := range c.MicrophoneArrays {
		var array room.MicrophoneArray
		switch a.Type {
		case "linear":
			array = room.LinearArray(vec(a.Center), vec(a.Direction), a.Count, a.Spacing)
		case "circular":
			array = room.CircularArray(vec(a.Center), a.Count, a.Radius)
		default:
			return nil, fmt.Errorf("microphone array %d: unknown type %q: %w", i, a.Type, room.ErrConfiguration)
		}
		if _, err := r.AddMicrophoneArray(array); err != nil {
			return nil, fmt.Errorf("microphone array %d: %w", i, err)
		}
	}
	if c.ListeningTriangle != nil {
		d, err := c.ListeningTriangle.Directivity.Create()
		if err != nil {
			return nil, fmt.Errorf("listening triangle: %w", err)
		}
		if _, _, _, err := c.ListeningTriangle.Create().Place(r, d); err != nil {
			return nil, fmt.Errorf("listening triangle: %w", err)
		}
	}

	logger.Info("room built",
		"walls", len(r.Walls()),
		"shoebox", r.IsShoeBox(),
		"volume", r.Volume(),
		"sources", len(r.Sources()),
		"microphones", len(r.Microphones()),
	)
	return r, nil
}

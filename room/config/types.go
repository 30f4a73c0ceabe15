package config

// ExperimentConfig represents the complete configuration of a room simulation
type ExperimentConfig struct {
	Metadata           Metadata           `yaml:"metadata"`
	Input              Input              `yaml:"input"`
	Materials          Materials          `yaml:"materials"`
	SurfaceAssignments SurfaceAssignments `yaml:"surface_assignments"`
	Sources            []Source           `yaml:"sources,omitempty"`
	Microphones        []Microphone       `yaml:"microphones,omitempty"`
	MicrophoneArrays   []MicrophoneArray  `yaml:"microphone_arrays,omitempty"`
	ListeningTriangle  *ListeningTriangle `yaml:"listening_triangle,omitempty"`
	Simulation         Simulation         `yaml:"simulation"`
}

type Metadata struct {
	Timestamp string `yaml:"timestamp"` // YYYY-MM-DD HH:MM:SS in UTC
	GitCommit string `yaml:"git_commit"`
}

// Input selects the room geometry: a mesh file or a shoebox
type Input struct {
	Mesh    *Mesh    `yaml:"mesh,omitempty"`
	ShoeBox *ShoeBox `yaml:"shoebox,omitempty"`
}

type Mesh struct {
	Path string `yaml:"path"`
	// stl or 3mf; taken from the file extension when empty
	Format string `yaml:"format,omitempty"`
	// Converts file units to meters, 1 when zero
	Scale float64 `yaml:"scale,omitempty"`
}

type ShoeBox struct {
	Dimensions [3]float64 `yaml:"dimensions"` // meters
	// Target reverberation time in seconds. When set, every wall gets the
	// absorption and the simulation the order given by Sabine's formula.
	RT60 float64 `yaml:"rt60,omitempty"`
}

type Materials struct {
	Inline   map[string]Material `yaml:"inline,omitempty"`
	FromFile string              `yaml:"from_file,omitempty"`
}

// Material is either a named set from the built-in database or explicit coefficients
type Material struct {
	Absorption  Coefficients `yaml:"absorption,omitempty" json:"absorption,omitempty"`
	Scattering  Coefficients `yaml:"scattering,omitempty" json:"scattering,omitempty"`
	CenterFreqs []float64    `yaml:"center_freqs,omitempty" json:"center_freqs,omitempty"`

	Database           string `yaml:"database,omitempty" json:"database,omitempty"`
	ScatteringDatabase string `yaml:"scattering_database,omitempty" json:"scattering_database,omitempty"`
}

// Coefficients is a list of per-band coefficients. A single number is broadband.
type Coefficients []float64

type SurfaceAssignments struct {
	Inline   map[string]string `yaml:"inline,omitempty"` // surface name -> material name
	FromFile string            `yaml:"from_file,omitempty"`
}

type Source struct {
	Name     string     `yaml:"name,omitempty"`
	Position [3]float64 `yaml:"position"`
	Delay    float64    `yaml:"delay,omitempty"` // seconds
	// JSON file holding an array of samples at the simulation sample rate
	Signal      string       `yaml:"signal,omitempty"`
	Directivity *Directivity `yaml:"directivity,omitempty"`
}

type Directivity struct {
	Horizontal  map[float64]float64 `yaml:"horizontal"` // angle -> attenuation
	Vertical    map[float64]float64 `yaml:"vertical"`   // angle -> attenuation
	Orientation [3]float64          `yaml:"orientation,omitempty"`
}

type Microphone struct {
	Name     string     `yaml:"name,omitempty"`
	Position [3]float64 `yaml:"position"`
}

type MicrophoneArray struct {
	Type      string     `yaml:"type"` // linear or circular
	Center    [3]float64 `yaml:"center"`
	Direction [3]float64 `yaml:"direction,omitempty"` // linear arrays only
	Count     int        `yaml:"count"`
	Spacing   float64    `yaml:"spacing,omitempty"` // linear arrays only
	Radius    float64    `yaml:"radius,omitempty"`  // circular arrays only
}

// ListeningTriangle places a stereo pair of sources and a microphone at the listening position
type ListeningTriangle struct {
	ReferencePosition  [3]float64   `yaml:"reference_position,omitempty"`
	ReferenceNormal    [3]float64   `yaml:"reference_normal,omitempty"`
	DistanceFromFront  float64      `yaml:"distance_from_front"`
	DistanceFromCenter float64      `yaml:"distance_from_center"`
	SourceHeight       float64      `yaml:"source_height"`
	ListenHeight       float64      `yaml:"listen_height"`
	Directivity        *Directivity `yaml:"directivity,omitempty"`
}

// Simulation overrides the defaults of room.Config. Zero values keep the default.
type Simulation struct {
	SampleRate   float64 `yaml:"sample_rate,omitempty"`
	SpeedOfSound float64 `yaml:"speed_of_sound,omitempty"`

	// Negative means automatic
	MaxOrder             *int    `yaml:"max_order,omitempty"`
	MaxAutoOrder         int     `yaml:"max_auto_order,omitempty"`
	ISMEnergyThresholdDB float64 `yaml:"ism_energy_threshold_db,omitempty"`
	MaxImageSources      int     `yaml:"max_image_sources,omitempty"`
	UseISM               *bool   `yaml:"use_ism,omitempty"`
	UseRayTracing        *bool   `yaml:"use_ray_tracing,omitempty"`

	NumRays           int     `yaml:"num_rays,omitempty"`
	ReceiverRadius    float64 `yaml:"receiver_radius,omitempty"`
	EnergyThresholdDB float64 `yaml:"energy_threshold_db,omitempty"`
	TimeThresholdMS   float64 `yaml:"time_threshold_ms,omitempty"`
	MaxBounces        int     `yaml:"max_bounces,omitempty"`
	HistBinSizeMS     float64 `yaml:"hist_bin_size_ms,omitempty"`

	AirAbsorption         bool    `yaml:"air_absorption,omitempty"`
	BandBase              float64 `yaml:"band_base,omitempty"`
	NumBands              int     `yaml:"num_bands,omitempty"`
	FractionalDelayLength int     `yaml:"fractional_delay_length,omitempty"`
	MaxRIRLength          float64 `yaml:"max_rir_length,omitempty"` // seconds
	DecayThresholdDB      float64 `yaml:"decay_threshold_db,omitempty"`

	Workers int    `yaml:"workers,omitempty"`
	Seed    uint64 `yaml:"seed,omitempty"`
}

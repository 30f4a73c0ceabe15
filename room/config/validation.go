package config

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jdginn/go-roomsim/room"
)

// Validation helper functions
func validatePositive(field string, value float64) []ValidationError {
	if !(value > 0) {
		return []ValidationError{{
			Field:   field,
			Message: "must be positive",
		}}
	}
	return nil
}

func validateNonNegative(field string, value float64) []ValidationError {
	if value < 0 || math.IsNaN(value) {
		return []ValidationError{{
			Field:   field,
			Message: "must be non-negative",
		}}
	}
	return nil
}

func validateNonPositive(field string, value float64) []ValidationError {
	if value > 0 || math.IsNaN(value) {
		return []ValidationError{{
			Field:   field,
			Message: "must be a negative level in dB",
		}}
	}
	return nil
}

func validateInRange(field string, value, min, max float64) []ValidationError {
	if !(value >= min && value <= max) {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("must be between %v and %v", min, max),
		}}
	}
	return nil
}

func validateUnitVector(field string, vec [3]float64) []ValidationError {
	length := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1] + vec[2]*vec[2])
	if math.Abs(length-1.0) > 1e-6 {
		return []ValidationError{{
			Field:   field,
			Message: "must be a unit vector",
		}}
	}
	return nil
}

func validateAngleRange(field string, angle float64) []ValidationError {
	if angle < -180 || angle > 180 {
		return []ValidationError{{
			Field:   field,
			Message: "angle must be between -180 and 180 degrees",
		}}
	}
	return nil
}

// ValidationError represents a structured validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatValidationErrors formats validation errors grouped by their top level section
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Validation Errors:\n")

	// Group errors by category
	categories := map[string][]ValidationError{}
	var names []string
	for _, err := range errs {
		category := strings.Split(err.Field, ".")[0]
		if _, ok := categories[category]; !ok {
			names = append(names, category)
		}
		categories[category] = append(categories[category], err)
	}
	sort.Strings(names)

	for _, category := range names {
		b.WriteString(fmt.Sprintf("\n%s:\n", strings.ToUpper(category)))
		for _, err := range categories[category] {
			// Remove category prefix from field for cleaner display
			field := strings.TrimPrefix(err.Field, category+".")
			if field == category {
				field = "general"
			}
			b.WriteString(fmt.Sprintf("  - %s: %s\n", field, err.Message))
		}
	}

	return b.String()
}

// Validate performs validation on the entire configuration
func (c *ExperimentConfig) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.Input.Validate()...)
	errors = append(errors, c.Materials.Validate()...)
	errors = append(errors, c.SurfaceAssignments.Validate(&c.Materials)...)
	for i := range c.Sources {
		errors = append(errors, c.Sources[i].Validate(fmt.Sprintf("sources.%d", i))...)
	}
	for i, m := range c.Microphones {
		if !finite(m.Position) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("microphones.%d.position", i),
				Message: "must be finite",
			})
		}
	}
	for i := range c.MicrophoneArrays {
		errors = append(errors, c.MicrophoneArrays[i].Validate(fmt.Sprintf("microphone_arrays.%d", i))...)
	}
	if c.ListeningTriangle != nil {
		errors = append(errors, c.ListeningTriangle.Validate()...)
	}
	if len(c.Sources) == 0 && c.ListeningTriangle == nil {
		errors = append(errors, ValidationError{
			Field:   "sources",
			Message: "at least one source or a listening triangle is required",
		})
	}
	if len(c.Microphones) == 0 && len(c.MicrophoneArrays) == 0 && c.ListeningTriangle == nil {
		errors = append(errors, ValidationError{
			Field:   "microphones",
			Message: "at least one microphone, microphone array or a listening triangle is required",
		})
	}
	errors = append(errors, c.Simulation.Validate()...)
	return errors
}

func finite(v [3]float64) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (i *Input) Validate() []ValidationError {
	var errors []ValidationError

	switch {
	case i.Mesh == nil && i.ShoeBox == nil:
		return []ValidationError{{
			Field:   "input",
			Message: "either mesh or shoebox must be specified",
		}}
	case i.Mesh != nil && i.ShoeBox != nil:
		return []ValidationError{{
			Field:   "input",
			Message: "mesh and shoebox are mutually exclusive",
		}}
	}

	if i.Mesh != nil {
		if i.Mesh.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "input.mesh.path",
				Message: "mesh path is required",
			})
		} else if f := i.Mesh.format(); f != "stl" && f != "3mf" {
			errors = append(errors, ValidationError{
				Field:   "input.mesh.format",
				Message: fmt.Sprintf("unsupported mesh format %q, use stl or 3mf", f),
			})
		}
		errors = append(errors, validateNonNegative("input.mesh.scale", i.Mesh.Scale)...)
	}

	if i.ShoeBox != nil {
		for axis, d := range i.ShoeBox.Dimensions {
			errors = append(errors, validatePositive(fmt.Sprintf("input.shoebox.dimensions.%d", axis), d)...)
		}
		errors = append(errors, validateNonNegative("input.shoebox.rt60", i.ShoeBox.RT60)...)
	}

	return errors
}

// format returns the mesh format, lower case, from Format or the file extension
func (m *Mesh) format() string {
	if m.Format != "" {
		return strings.ToLower(m.Format)
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(m.Path), "."))
}

func (m *Materials) Validate() []ValidationError {
	var errors []ValidationError

	if m.Inline == nil && m.FromFile == "" {
		errors = append(errors, ValidationError{
			Field:   "materials",
			Message: "either inline or from_file must be specified",
		})
		return errors
	}

	for name, material := range m.Inline {
		field := fmt.Sprintf("materials.inline.%s", name)
		if material.Database != "" {
			if len(material.Absorption) > 0 {
				errors = append(errors, ValidationError{
					Field:   field,
					Message: "database and absorption are mutually exclusive",
				})
			}
			if _, err := room.LookupMaterial(material.Database, material.ScatteringDatabase); err != nil {
				errors = append(errors, ValidationError{
					Field:   field + ".database",
					Message: err.Error(),
				})
			}
			continue
		}
		if len(material.Absorption) == 0 {
			errors = append(errors, ValidationError{
				Field:   field + ".absorption",
				Message: "absorption or database is required",
			})
		}
		for _, a := range material.Absorption {
			errors = append(errors, validateInRange(field+".absorption", a, 0, 1)...)
		}
		for _, s := range material.Scattering {
			errors = append(errors, validateInRange(field+".scattering", s, 0, 1)...)
		}
		if len(material.CenterFreqs) > 0 && len(material.CenterFreqs) != len(material.Absorption) {
			errors = append(errors, ValidationError{
				Field:   field + ".center_freqs",
				Message: "needs one frequency per absorption coefficient",
			})
		}
	}

	return errors
}

func (sa *SurfaceAssignments) Validate(materials *Materials) []ValidationError {
	var errors []ValidationError

	if sa.Inline == nil && sa.FromFile == "" {
		errors = append(errors, ValidationError{
			Field:   "surface_assignments",
			Message: "either inline or from_file must be specified",
		})
		return errors
	}

	if sa.Inline != nil {
		if _, hasDefault := sa.Inline["default"]; !hasDefault {
			errors = append(errors, ValidationError{
				Field:   "surface_assignments.inline",
				Message: "must include a default material",
			})
		}

		// Material files are only read when merging, so skip the reference check until then
		if materials.FromFile == "" || materials.Inline != nil {
			for surface, material := range sa.Inline {
				if !materials.HasMaterial(material) {
					errors = append(errors, ValidationError{
						Field:   fmt.Sprintf("surface_assignments.inline.%s", surface),
						Message: fmt.Sprintf("references undefined material '%s'", material),
					})
				}
			}
		}
	}

	return errors
}

func (s *Source) Validate(field string) []ValidationError {
	var errors []ValidationError
	if !finite(s.Position) {
		errors = append(errors, ValidationError{Field: field + ".position", Message: "must be finite"})
	}
	errors = append(errors, validateNonNegative(field+".delay", s.Delay)...)
	if s.Directivity != nil {
		errors = append(errors, s.Directivity.Validate(field+".directivity", true)...)
	}
	return errors
}

func (d *Directivity) Validate(field string, needsOrientation bool) []ValidationError {
	var errors []ValidationError
	if len(d.Horizontal) == 0 {
		errors = append(errors, ValidationError{Field: field + ".horizontal", Message: "needs at least one point"})
	}
	if len(d.Vertical) == 0 {
		errors = append(errors, ValidationError{Field: field + ".vertical", Message: "needs at least one point"})
	}
	for angle, gain := range d.Horizontal {
		errors = append(errors, validateAngleRange(field+".horizontal", angle)...)
		errors = append(errors, validateNonPositive(field+".horizontal", gain)...)
	}
	for angle, gain := range d.Vertical {
		errors = append(errors, validateAngleRange(field+".vertical", angle)...)
		errors = append(errors, validateNonPositive(field+".vertical", gain)...)
	}
	if needsOrientation {
		errors = append(errors, validateUnitVector(field+".orientation", d.Orientation)...)
	}
	return errors
}

func (a *MicrophoneArray) Validate(field string) []ValidationError {
	var errors []ValidationError
	errors = append(errors, validatePositive(field+".count", float64(a.Count))...)
	switch a.Type {
	case "linear":
		errors = append(errors, validateUnitVector(field+".direction", a.Direction)...)
		errors = append(errors, validatePositive(field+".spacing", a.Spacing)...)
	case "circular":
		errors = append(errors, validatePositive(field+".radius", a.Radius)...)
	default:
		errors = append(errors, ValidationError{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown array type %q, use linear or circular", a.Type),
		})
	}
	return errors
}

func (lt *ListeningTriangle) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validatePositive("listening_triangle.distance_from_front", lt.DistanceFromFront)...)
	errors = append(errors, validatePositive("listening_triangle.distance_from_center", lt.DistanceFromCenter)...)
	errors = append(errors, validatePositive("listening_triangle.source_height", lt.SourceHeight)...)
	errors = append(errors, validatePositive("listening_triangle.listen_height", lt.ListenHeight)...)

	if lt.ReferenceNormal != [3]float64{0, 0, 0} {
		errors = append(errors, validateUnitVector("listening_triangle.reference_normal", lt.ReferenceNormal)...)
	}
	if lt.Directivity != nil {
		errors = append(errors, lt.Directivity.Validate("listening_triangle.directivity", false)...)
	}

	return errors
}

func (s *Simulation) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateNonNegative("simulation.sample_rate", s.SampleRate)...)
	errors = append(errors, validateNonNegative("simulation.speed_of_sound", s.SpeedOfSound)...)
	errors = append(errors, validateNonNegative("simulation.max_auto_order", float64(s.MaxAutoOrder))...)
	errors = append(errors, validateNonPositive("simulation.ism_energy_threshold_db", s.ISMEnergyThresholdDB)...)
	errors = append(errors, validateNonNegative("simulation.max_image_sources", float64(s.MaxImageSources))...)
	errors = append(errors, validateNonNegative("simulation.num_rays", float64(s.NumRays))...)
	errors = append(errors, validateNonNegative("simulation.receiver_radius", s.ReceiverRadius)...)
	errors = append(errors, validateNonPositive("simulation.energy_threshold_db", s.EnergyThresholdDB)...)
	errors = append(errors, validateNonNegative("simulation.time_threshold_ms", s.TimeThresholdMS)...)
	errors = append(errors, validateNonNegative("simulation.max_bounces", float64(s.MaxBounces))...)
	errors = append(errors, validateNonNegative("simulation.hist_bin_size_ms", s.HistBinSizeMS)...)
	errors = append(errors, validateNonNegative("simulation.band_base", s.BandBase)...)
	errors = append(errors, validateNonNegative("simulation.num_bands", float64(s.NumBands))...)
	errors = append(errors, validateNonNegative("simulation.max_rir_length", s.MaxRIRLength)...)
	errors = append(errors, validateNonPositive("simulation.decay_threshold_db", s.DecayThresholdDB)...)
	errors = append(errors, validateNonNegative("simulation.workers", float64(s.Workers))...)
	if s.FractionalDelayLength != 0 && (s.FractionalDelayLength < 0 || s.FractionalDelayLength%2 == 0) {
		errors = append(errors, ValidationError{
			Field:   "simulation.fractional_delay_length",
			Message: "must be a positive odd number",
		})
	}
	if s.UseISM != nil && s.UseRayTracing != nil && !*s.UseISM && !*s.UseRayTracing {
		errors = append(errors, ValidationError{
			Field:   "simulation",
			Message: "use_ism and use_ray_tracing cannot both be false",
		})
	}

	return errors
}

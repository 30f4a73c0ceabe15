package room

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fogleman/pt/pt"
)

// JSON schema of the annotations read by external 3D viewers
type PointJSON struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Size float64 `json:"size,omitempty"`
	Name string  `json:"name,omitempty"`
}

type AcousticPathJSON struct {
	Points    []PointJSON `json:"points"`
	Order     int         `json:"order"`
	Walls     []string    `json:"walls,omitempty"`
	Delay     float64     `json:"delay"`  // seconds
	Energy    float64     `json:"energy"` // dB, loudest band
	Distance  float64     `json:"distance"`
	Name      string      `json:"name,omitempty"`
	Color     string      `json:"color,omitempty"`
	Thickness float64     `json:"thickness,omitempty"`
}

type ZoneJSON struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Radius       float64 `json:"radius"`
	Name         string  `json:"name,omitempty"`
	Color        string  `json:"color,omitempty"`
	Transparency float64 `json:"transparency,omitempty"`
}

type AnnotationsJSON struct {
	Points        []PointJSON        `json:"points,omitempty"`
	AcousticPaths []AcousticPathJSON `json:"acousticPaths,omitempty"`
	Zones         []ZoneJSON         `json:"zones,omitempty"`
}

func VectorToJSON(v pt.Vector) PointJSON {
	return PointJSON{
		X:    v.X,
		Y:    v.Y,
		Z:    v.Z,
		Size: 1.0,
	}
}

// Annotations collects every source and microphone, the receiver sphere of mic,
// and the reflection paths from src to mic up to maxOrder.
func (r *Room) Annotations(mic, src, maxOrder int) (AnnotationsJSON, error) {
	arrivals, err := r.Arrivals(mic, src)
	if err != nil {
		return AnnotationsJSON{}, err
	}
	var out AnnotationsJSON
	for i, s := range r.sources {
		p := VectorToJSON(s.Position)
		p.Name = fmt.Sprintf("source %d", i)
		out.Points = append(out.Points, p)
	}
	for i, m := range r.mics {
		p := VectorToJSON(m.Position)
		p.Name = m.Name
		if p.Name == "" {
			p.Name = fmt.Sprintf("mic %d", i)
		}
		out.Points = append(out.Points, p)
	}
	micPos := r.mics[mic].Position
	out.Zones = append(out.Zones, ZoneJSON{
		X:            micPos.X,
		Y:            micPos.Y,
		Z:            micPos.Z,
		Radius:       r.cfg.ReceiverRadius,
		Name:         "receiver",
		Color:        "#00A000",
		Transparency: 0.7,
	})

	set := r.ImageSources(src)
	for i, a := range arrivals {
		if a.Order > maxOrder {
			continue
		}
		path, err := r.ReflectionPath(mic, src, i)
		if err != nil {
			return AnnotationsJSON{}, err
		}
		ap := AcousticPathJSON{
			Order:     a.Order,
			Delay:     a.Time,
			Energy:    toDB(maxOf(a.Energy)),
			Distance:  a.Distance,
			Color:     "#FF0000",
			Thickness: 1,
		}
		for _, v := range path {
			ap.Points = append(ap.Points, VectorToJSON(v))
		}
		if set != nil {
			for _, w := range set.Walls(a.Image) {
				ap.Walls = append(ap.Walls, r.walls[w].Name)
			}
		}
		out.AcousticPaths = append(out.AcousticPaths, ap)
	}
	return out, nil
}

// SaveAnnotations writes the annotations of pair (mic, src) to a JSON file
func (r *Room) SaveAnnotations(filename string, mic, src, maxOrder int) error {
	a, err := r.Annotations(mic, src, maxOrder)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling annotations: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}

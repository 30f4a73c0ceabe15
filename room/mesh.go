package room

import (
	"fmt"

	"github.com/fogleman/pt/pt"
	"github.com/hpinc/go3mf"
)

// Triangles returns the vertices of every triangle of a pt mesh
func Triangles(m *pt.Mesh) [][3]pt.Vector {
	tris := make([][3]pt.Vector, len(m.Triangles))
	for i, t := range m.Triangles {
		tris[i] = [3]pt.Vector{t.V1, t.V2, t.V3}
	}
	return tris
}

// LoadSTL builds a room from an STL mesh, one wall per triangle.
// scale converts file units to meters.
func LoadSTL(path string, scale float64, material Material, cfg Config) (*Room, error) {
	mesh, err := pt.LoadSTL(path, pt.Material{})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return FromTriangles(Triangles(mesh), scale, material, cfg)
}

// Load3MF builds a room from every object of a 3MF build, one wall per triangle.
//
// Walls take the material named after their object, or "default".
func Load3MF(path string, scale float64, materials map[string]Material, cfg Config) (*Room, error) {
	if !(scale > 0) {
		return nil, configErrorf("mesh scale must be positive, got %v", scale)
	}
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()
	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	var walls []*Wall
	for _, item := range model.Build.Items {
		obj, ok := model.FindObject(item.ObjectPath(), item.ObjectID)
		if !ok || obj.Mesh == nil {
			continue
		}
		material, ok := materials[obj.Name]
		if !ok {
			if material, ok = materials["default"]; !ok {
				return nil, configErrorf("no material for object %q and no default", obj.Name)
			}
		}
		vertex := func(i uint32) pt.Vector {
			v := obj.Mesh.Vertices.Vertex[i]
			return V(float64(v.X()), float64(v.Y()), float64(v.Z())).MulScalar(scale)
		}
		for i, t := range obj.Mesh.Triangles.Triangle {
			w, err := NewWall(fmt.Sprintf("%s/%d", obj.Name, i),
				[]pt.Vector{vertex(t.V1), vertex(t.V2), vertex(t.V3)}, material)
			if err != nil {
				return nil, err
			}
			walls = append(walls, w)
		}
	}
	return New(walls, cfg)
}

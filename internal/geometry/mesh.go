// Package geometry turns aggregated call trees into vertex and color buffers: stacked
// cuboids for the 3D overview and rectangles for the 2D flamegraph.
package geometry

import "github.com/metaflame/internal/colorscheme"

// Layout constants in world units.
const (
	LengthMod     = 1.9
	LengthOffset  = 0.75
	BreadthMod    = 1.8
	BreadthOffset = 0.9
	BarGap        = 1.0
	// ViewShift moves normalized offsets left so bars start near the viewport edge.
	ViewShift = 0.9
)

const (
	VertsPerQuad   = 6
	VertsPerCuboid = 6 * VertsPerQuad
)

// Vec3 is a point in world space.
type Vec3 [3]float32

// Mesh is a triangle list. Colors holds one entry per vertex.
type Mesh struct {
	Vertices []Vec3             `json:"vertices"`
	Colors   []colorscheme.RGBA `json:"colors"`
}

// Len returns the number of vertices.
func (m *Mesh) Len() int {
	return len(m.Vertices)
}

// Empty reports whether the mesh has no vertices.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0
}

// Quads returns the number of six-vertex faces.
func (m *Mesh) Quads() int {
	return len(m.Vertices) / VertsPerQuad
}

func (m *Mesh) appendVerts(verts []Vec3, color colorscheme.RGBA) {
	m.Vertices = append(m.Vertices, verts...)
	for range verts {
		m.Colors = append(m.Colors, color)
	}
}

// Rect returns the two triangles of the axis-aligned rectangle spanned by lo and hi in the
// plane perpendicular to axis. The first vertex is lo and the last is hi.
func Rect(lo, hi Vec3, axis int) [VertsPerQuad]Vec3 {
	p1 := lo
	p1[(axis+1)%3] = hi[(axis+1)%3]
	p2 := lo
	p2[(axis+2)%3] = hi[(axis+2)%3]
	return [VertsPerQuad]Vec3{lo, p1, hi, lo, p2, hi}
}

// Cuboid returns the six faces of the box spanned by lo and hi. Faces 0-2 lie on the lo
// side of each axis, faces 3-5 on the hi side.
func Cuboid(lo, hi Vec3) [VertsPerCuboid]Vec3 {
	var out [VertsPerCuboid]Vec3
	for i := 0; i < 6; i++ {
		p1, p2 := lo, hi
		axis := i % 3
		if i < 3 {
			p2[axis] = lo[axis]
		} else {
			p1[axis] = hi[axis]
		}
		face := Rect(p1, p2, axis)
		copy(out[i*VertsPerQuad:], face[:])
	}
	return out
}

// Buffer flattens the mesh into xyz triples followed by rgba quadruples.
func (m *Mesh) Buffer() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3+len(m.Colors)*4)
	for _, v := range m.Vertices {
		out = append(out, v[0], v[1], v[2])
	}
	for _, c := range m.Colors {
		out = append(out, c[0], c[1], c[2], c[3])
	}
	return out
}

// Highlight alpha and darken factors.
const (
	HiddenAlpha  = 0.05
	DarkenFactor = 0.1
)

// HideOthers returns a copy of m with every vertex not colored color made translucent.
func HideOthers(m *Mesh, color colorscheme.RGBA) *Mesh {
	return recolor(m, color, func(c colorscheme.RGBA) colorscheme.RGBA {
		return c.WithAlpha(HiddenAlpha)
	})
}

// DarkenOthers returns a copy of m with every vertex not colored color darkened.
func DarkenOthers(m *Mesh, color colorscheme.RGBA) *Mesh {
	return recolor(m, color, func(c colorscheme.RGBA) colorscheme.RGBA {
		return c.Darken(DarkenFactor)
	})
}

func recolor(m *Mesh, keep colorscheme.RGBA, fn func(colorscheme.RGBA) colorscheme.RGBA) *Mesh {
	out := &Mesh{
		Vertices: append([]Vec3(nil), m.Vertices...),
		Colors:   make([]colorscheme.RGBA, len(m.Colors)),
	}
	for i, c := range m.Colors {
		if c == keep {
			out.Colors[i] = c
		} else {
			out.Colors[i] = fn(c)
		}
	}
	return out
}

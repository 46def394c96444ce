package geometry

import (
	"github.com/metaflame/internal/viewtree"
	"github.com/metaflame/pkg/model"
)

// Flamegraph builds the 2D mesh of vt in the z=0 plane, one rectangle per colored node in
// breadth-first order. Rectangle k belongs to breadth-first node k+1.
func Flamegraph(vt *viewtree.Tree, metric model.Metric) *Mesh {
	mesh := &Mesh{}
	if vt == nil || vt.Root == nil {
		return mesh
	}
	total := vt.Root.Value.Of(metric)
	if total == 0 {
		return mesh
	}
	totalF := float64(total)

	vt.BreadthFirst(func(n *viewtree.Node, depth int) {
		if n.Color == nil {
			return
		}
		size := float64(n.Value.Of(metric)) / totalF
		offset := float64(n.Offset.Of(metric))/totalF - ViewShift
		x := LengthOffset + offset*LengthMod

		lo := Vec3{float32(x), float32(depth - 1), 0}
		hi := Vec3{float32(x + size*LengthMod), float32(depth), 0}
		rect := Rect(lo, hi, 2)
		mesh.appendVerts(rect[:], *n.Color)
	})
	return mesh
}

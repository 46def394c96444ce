// Package picking maps pointer positions on a viewport to mesh elements: flamegraph
// rectangles in the inspector and buckets in the overview.
package picking

import (
	"gioui.org/f32"

	"github.com/metaflame/internal/geometry"
	"github.com/metaflame/internal/viewtree"
	"github.com/metaflame/pkg/model"
)

// DefaultInspectorHeight is the number of flamegraph levels visible at once.
const DefaultInspectorHeight = 12

// Rect is a viewport in screen pixels.
type Rect struct {
	Min f32.Point
	Max f32.Point
}

// Dx returns the width of r.
func (r Rect) Dx() float32 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float32 { return r.Max.Y - r.Min.Y }

// ScreenToWorld maps pos inside r to world coordinates in [-1,1] with y pointing up.
// A degenerate viewport maps everything to the origin.
func ScreenToWorld(r Rect, pos f32.Point) f32.Point {
	w, h := r.Dx(), r.Dy()
	if w == 0 || h == 0 {
		return f32.Point{}
	}
	return f32.Pt(
		((pos.X-r.Min.X)/w-0.5)*2,
		((pos.Y-r.Min.Y)/h-0.5)*-2,
	)
}

// InspectorTransform scales flamegraph levels so height levels fill the upper half of
// the viewport: y' = y/height - 1.
func InspectorTransform(height float32) f32.Affine2D {
	if height <= 0 {
		height = DefaultInspectorHeight
	}
	return f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(1, 1/height)).
		Offset(f32.Pt(0, -1))
}

// Inspector returns the breadth-first index and node of the flamegraph rectangle under
// pos. Rectangle k of mesh belongs to node k+1 of vt.
func Inspector(mesh *geometry.Mesh, vt *viewtree.Tree, r Rect, pos f32.Point, tr f32.Affine2D) (int, *viewtree.Node, bool) {
	if mesh == nil {
		return 0, nil, false
	}
	world := ScreenToWorld(r, pos)
	verts := mesh.Vertices
	for i := 0; i+geometry.VertsPerQuad <= len(verts); i += geometry.VertsPerQuad {
		a := tr.Transform(f32.Pt(verts[i][0], verts[i][1]))
		b := tr.Transform(f32.Pt(verts[i+5][0], verts[i+5][1]))
		minX, maxX := min(a.X, b.X), max(a.X, b.X)
		minY, maxY := min(a.Y, b.Y), max(a.Y, b.Y)
		if world.X > minX && world.X < maxX && world.Y > minY && world.Y < maxY {
			idx := 1 + i/geometry.VertsPerQuad
			return idx, vt.Nth(idx), true
		}
	}
	return 0, nil, false
}

// Overview returns the bucket under pos when the overview spreads numBuckets buckets
// across the viewport width.
func Overview(numBuckets int, r Rect, pos f32.Point) (int, bool) {
	if numBuckets < 1 {
		return 0, false
	}
	world := ScreenToWorld(r, pos)
	x := float64(world.X) + geometry.BreadthOffset
	k := x / (geometry.BreadthMod / float64(numBuckets))
	if k > 0 && k < float64(numBuckets) {
		return int(k), true
	}
	return 0, false
}

// SliceRange returns the sub-range of r covered by bucket out of numBuckets.
func SliceRange(r model.TimeRange, numBuckets, bucket int) model.TimeRange {
	if numBuckets < 1 {
		return r
	}
	size := float64(r.Len()) / float64(numBuckets)
	start := float64(r.Start)
	return model.TimeRange{
		Start: uint64(float64(bucket)*size + start),
		End:   uint64(float64(bucket+1)*size + start),
	}
}

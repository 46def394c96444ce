package geometry

import (
	"math"

	"github.com/metaflame/internal/calltree"
)

// Overview builds the 3D stacked-bar mesh of tree. Each colored node below the first
// level emits one cuboid per bucket it is active in, stacked after its preceding siblings.
func Overview(tree *calltree.Tree, opts Options) *Mesh {
	mesh := &Mesh{}
	if tree == nil || tree.Root == nil {
		return mesh
	}

	g := &overviewBuilder{tree: tree, opts: opts, mesh: mesh}
	rootOverlaps, ok := g.overlaps(tree.Root)
	if !ok || len(rootOverlaps) == 0 {
		return mesh
	}
	for _, a := range rootOverlaps {
		if v := a.Of(opts.Metric); v > g.max {
			g.max = v
		}
	}
	if g.max == 0 {
		return mesh
	}
	g.divisions = len(rootOverlaps)
	if opts.BarSpacing {
		g.spacing = BarGap
	}

	g.visit(tree.Root, 1, make([]uint64, g.divisions))
	return mesh
}

type overviewBuilder struct {
	tree      *calltree.Tree
	opts      Options
	mesh      *Mesh
	max       uint64
	divisions int
	spacing   float64
}

func (g *overviewBuilder) overlaps(n *calltree.Node) ([]calltree.Aggregate, bool) {
	return n.Overlaps(g.opts.Axis, g.opts.NumBuckets, g.opts.NumThreads, g.opts.Range, g.tree.ValueMode)
}

// visit emits n's cuboids at the given per-bucket offsets and returns n's overlaps so
// the caller can advance the running offsets of n's siblings.
func (g *overviewBuilder) visit(n *calltree.Node, depth int, offsets []uint64) ([]calltree.Aggregate, bool) {
	ov, ok := g.overlaps(n)
	if !ok {
		return nil, false
	}

	if n.Color != nil && depth > 1 {
		g.emit(n, depth, ov, offsets)
	}

	running := append([]uint64(nil), offsets...)
	for _, c := range n.Children {
		cov, ok := g.visit(c, depth+1, running)
		if !ok {
			continue
		}
		for i := range running {
			if i < len(cov) {
				running[i] += cov[i].Of(g.opts.Metric)
			}
		}
	}
	return ov, true
}

func (g *overviewBuilder) emit(n *calltree.Node, depth int, ov []calltree.Aggregate, offsets []uint64) {
	maxF := float64(g.max)
	div := float64(g.divisions)
	y1 := float32(depthCurve(depth))
	y2 := float32(depthCurve(depth + 1))

	for i := 0; i < g.divisions && i < len(ov); i++ {
		size := ov[i].Of(g.opts.Metric)
		if size == 0 {
			continue
		}
		block := float64(size) / maxF
		if g.opts.MinFraction > 0 && block < g.opts.MinFraction {
			continue
		}
		offset := float64(offsets[i])/maxF - ViewShift

		x := LengthOffset + offset*LengthMod
		z := float64(i)/div*BreadthMod - BreadthOffset
		lo := Vec3{float32(x), y1, float32(z)}
		hi := Vec3{float32(x + block*LengthMod), y2, float32(z + (BreadthMod-g.spacing)/div)}

		cube := Cuboid(lo, hi)
		g.mesh.appendVerts(cube[:], *n.Color)
	}
}

// depthCurve compresses deeper levels toward y=1.
func depthCurve(depth int) float64 {
	return 1 - math.Pow(2, -0.1*float64(depth))
}

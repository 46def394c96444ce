// Package viewtree extracts offset-annotated snapshots of an aggregate call tree for a
// single time range or thread. View trees are built from scratch and never mutated after
// construction.
package viewtree

import (
	"github.com/metaflame/internal/calltree"
	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/pkg/model"
)

// Offset is the running total of preceding siblings along each metric.
type Offset struct {
	Dur   uint64 `json:"dur"`
	Value uint64 `json:"value"`
}

// Of returns the offset along m.
func (o Offset) Of(m model.Metric) uint64 {
	if m == model.MetricValue {
		return o.Value
	}
	return o.Dur
}

// Node is one frame of a view tree.
type Node struct {
	Name     string             `json:"name"`
	Value    calltree.Aggregate `json:"value"`
	Color    *colorscheme.RGBA  `json:"color,omitempty"`
	Offset   Offset             `json:"offset"`
	Children []*Node            `json:"children,omitempty"`
}

// Percent returns the node's share of root along m, in percent.
func (n *Node) Percent(m model.Metric, root *Node) float64 {
	if root == nil {
		return 0
	}
	total := root.Value.Of(m)
	if total == 0 {
		return 0
	}
	return float64(n.Value.Of(m)) / float64(total) * 100
}

// Tree is a view tree and the slice it was built for. Thread trees carry an empty range.
type Tree struct {
	Root   *Node           `json:"root"`
	Axis   model.Axis      `json:"axis"`
	Range  model.TimeRange `json:"range"`
	Thread int             `json:"thread"`
}

// Placeholder returns the canonical empty root.
func Placeholder() *Node {
	return &Node{Name: calltree.RootName}
}

// BuildTime extracts the subtree active in r. Nodes without any duration inside r are
// omitted together with their subtree.
func BuildTime(tree *calltree.Tree, r model.TimeRange) *Tree {
	vt := &Tree{Axis: model.AxisTime, Range: r}
	if tree == nil || tree.Root == nil {
		vt.Root = Placeholder()
		return vt
	}

	mode := tree.ValueMode
	overlap := func(n *calltree.Node) (calltree.Aggregate, bool) {
		agg, ok := n.TimeOverlapsMode(1, r, mode)
		if !ok {
			return calltree.Aggregate{}, false
		}
		return agg[0], true
	}

	root, ok := build(tree.Root, overlap)
	if !ok {
		vt.Root = Placeholder()
		return vt
	}
	assignOffsets(root, Offset{})
	vt.Root = root
	return vt
}

// BuildThread extracts every node with its totals restricted to thread.
func BuildThread(tree *calltree.Tree, thread int) *Tree {
	vt := &Tree{Axis: model.AxisThread, Thread: thread}
	if tree == nil || tree.Root == nil {
		vt.Root = Placeholder()
		return vt
	}

	overlap := func(n *calltree.Node) (calltree.Aggregate, bool) {
		return n.SingleThreadOverlap(thread)[0], true
	}

	root, _ := build(tree.Root, overlap)
	assignOffsets(root, Offset{})
	vt.Root = root
	return vt
}

func build(n *calltree.Node, overlap func(*calltree.Node) (calltree.Aggregate, bool)) (*Node, bool) {
	agg, ok := overlap(n)
	if !ok {
		return nil, false
	}
	out := &Node{
		Name:  n.Name,
		Value: agg,
		Color: copyColor(n.Color),
	}
	for _, c := range n.Children {
		if child, ok := build(c, overlap); ok {
			out.Children = append(out.Children, child)
		}
	}
	return out, true
}

func assignOffsets(n *Node, off Offset) {
	n.Offset = off
	running := off
	for _, c := range n.Children {
		assignOffsets(c, running)
		running.Dur += c.Value.Dur
		running.Value += c.Value.Value
	}
}

func copyColor(c *colorscheme.RGBA) *colorscheme.RGBA {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// BreadthFirst visits nodes level by level in child order, root at depth 0.
func (t *Tree) BreadthFirst(fn func(n *Node, depth int)) {
	if t == nil || t.Root == nil {
		return
	}
	type item struct {
		node  *Node
		depth int
	}
	queue := []item{{t.Root, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		fn(it.node, it.depth)
		for _, c := range it.node.Children {
			queue = append(queue, item{c, it.depth + 1})
		}
	}
}

// Nth returns the n-th node in breadth-first order, root being 0.
func (t *Tree) Nth(n int) *Node {
	if n < 0 {
		return nil
	}
	var found *Node
	i := 0
	t.BreadthFirst(func(node *Node, _ int) {
		if i == n {
			found = node
		}
		i++
	})
	return found
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.BreadthFirst(func(*Node, int) { count++ })
	return count
}

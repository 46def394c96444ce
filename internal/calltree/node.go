// Package calltree folds timed trace records into an aggregate call tree and answers
// time-bucket and per-thread overlap queries over it.
package calltree

import (
	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/pkg/model"
)

// RootName is the name of the node representing all traces.
const RootName = "root"

// Sample is one raw contribution recorded at a node.
type Sample struct {
	Start uint64
	Dur   uint64
	Value uint64
	TID   int
}

// End returns the exclusive end timestamp of the sample.
func (s Sample) End() uint64 {
	return s.Start + s.Dur
}

// Aggregate is one reduced bucket or thread result.
type Aggregate struct {
	Dur   uint64 `json:"dur"`
	Value uint64 `json:"value"`
}

// Of returns the quantity selected by m.
func (a Aggregate) Of(m model.Metric) uint64 {
	if m == model.MetricValue {
		return a.Value
	}
	return a.Dur
}

// Add returns the element-wise sum of a and b.
func (a Aggregate) Add(b Aggregate) Aggregate {
	return Aggregate{Dur: a.Dur + b.Dur, Value: a.Value + b.Value}
}

// Node is a call-stack frame in the aggregate tree. Samples holds every contribution
// recorded for the frame, including those of its descendants.
type Node struct {
	Name     string
	Children []*Node
	Samples  []Sample
	Color    *colorscheme.RGBA

	// name -> index into Children
	childIndex map[string]int
}

func newNode(name string, color *colorscheme.RGBA) *Node {
	return &Node{
		Name:       name,
		Color:      color,
		childIndex: make(map[string]int),
	}
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if idx, ok := n.childIndex[name]; ok {
		return n.Children[idx]
	}
	return nil
}

// findOrCreate returns the child named name, creating it with color from mk if absent.
func (n *Node) findOrCreate(name string, mk func(string) *colorscheme.RGBA) *Node {
	if child := n.Child(name); child != nil {
		return child
	}
	child := newNode(name, mk(name))
	n.childIndex[name] = len(n.Children)
	n.Children = append(n.Children, child)
	return child
}

func (n *Node) addSample(s Sample) {
	n.Samples = append(n.Samples, s)
}

// Total sums every sample recorded at the node.
func (n *Node) Total() Aggregate {
	var a Aggregate
	for _, s := range n.Samples {
		a.Dur += s.Dur
		a.Value += s.Value
	}
	return a
}

package calltree

import (
	"context"
	"fmt"
	"strings"

	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/pkg/model"
)

// DefaultSalt is the salt new trees are colored with.
const DefaultSalt uint32 = 1

// ValueMode selects how a sample's value is split when only part of it overlaps a bucket.
type ValueMode int

const (
	// ValueTruncate multiplies the value by overlap/dur in integer arithmetic, so any
	// partial overlap contributes zero value.
	ValueTruncate ValueMode = iota
	// ValueProportional attributes floor(value*overlap/dur).
	ValueProportional
)

// String returns the string representation of ValueMode.
func (m ValueMode) String() string {
	switch m {
	case ValueTruncate:
		return "truncate"
	case ValueProportional:
		return "proportional"
	default:
		return "unknown"
	}
}

// ParseValueMode parses a value mode name.
func ParseValueMode(s string) (ValueMode, error) {
	switch strings.ToLower(s) {
	case "truncate", "":
		return ValueTruncate, nil
	case "proportional":
		return ValueProportional, nil
	default:
		return 0, fmt.Errorf("unknown value mode: %s", s)
	}
}

// Tree is the aggregate call tree of a trace batch together with its coloring settings.
type Tree struct {
	Root      *Node
	Scheme    colorscheme.Scheme
	Salt      uint32
	ValueMode ValueMode
}

// Option configures a Tree built by Build.
type Option func(*Tree)

// WithScheme sets the color scheme.
func WithScheme(s colorscheme.Scheme) Option {
	return func(t *Tree) { t.Scheme = s }
}

// WithSalt sets the color salt.
func WithSalt(salt uint32) Option {
	return func(t *Tree) { t.Salt = salt }
}

// WithValueMode sets the value ratio mode used by derived views.
func WithValueMode(m ValueMode) Option {
	return func(t *Tree) { t.ValueMode = m }
}

// NewTree creates an empty tree.
func NewTree(scheme colorscheme.Scheme, salt uint32) *Tree {
	return &Tree{
		Root:   newNode(RootName, nil),
		Scheme: scheme,
		Salt:   salt,
	}
}

// Build folds traces into a new tree. ctx is checked between records.
func Build(ctx context.Context, traces []model.Trace, opts ...Option) (*Tree, error) {
	t := NewTree(colorscheme.Default, DefaultSalt)
	for _, opt := range opts {
		opt(t)
	}
	for i := range traces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.AddTrace(&traces[i])
	}
	return t, nil
}

func (t *Tree) colorFor(name string) *colorscheme.RGBA {
	c := colorscheme.FromScheme(name, t.Scheme, t.Salt)
	return &c
}

// AddTrace records tr at the root, at every frame of its stack from outermost to
// innermost, and at a leaf named after the trace.
func (t *Tree) AddTrace(tr *model.Trace) {
	s := Sample{Start: tr.Start, Dur: tr.Dur, Value: tr.Value, TID: tr.TID}

	node := t.Root
	node.addSample(s)
	for i := len(tr.Stack) - 1; i >= 0; i-- {
		node = node.findOrCreate(tr.Stack[i].Name, t.colorFor)
		node.addSample(s)
	}
	node = node.findOrCreate(tr.Name, t.colorFor)
	node.addSample(s)
}

// Walk visits every node depth-first in insertion order, root first at depth 0.
// Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t.Root == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// NodeCount returns the number of nodes including the root.
func (t *Tree) NodeCount() int {
	count := 0
	t.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Find returns every non-root node with the given name in depth-first order.
func (t *Tree) Find(name string) []*Node {
	var found []*Node
	t.Walk(func(n *Node, depth int) bool {
		if depth > 0 && n.Name == name {
			found = append(found, n)
		}
		return true
	})
	return found
}

// MaxDepth returns the depth of the deepest node, root being 0.
func (t *Tree) MaxDepth() int {
	maxDepth := 0
	t.Walk(func(_ *Node, depth int) bool {
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	})
	return maxDepth
}

package calltree

import "github.com/metaflame/internal/colorscheme"

// ModifyColor overwrites the color of every non-root node named name.
func (t *Tree) ModifyColor(name string, color colorscheme.RGBA) {
	t.eachNonRoot(func(n *Node) {
		if n.Name == name {
			c := color
			n.Color = &c
		}
	})
}

// NewColorScheme recolors every non-root node from the tree's scheme and salt.
func (t *Tree) NewColorScheme() {
	t.eachNonRoot(func(n *Node) {
		n.Color = t.colorFor(n.Name)
	})
}

// SetScheme changes the scheme and recolors the tree.
func (t *Tree) SetScheme(s colorscheme.Scheme) {
	t.Scheme = s
	t.NewColorScheme()
}

// SetSalt changes the salt and recolors the tree.
func (t *Tree) SetSalt(salt uint32) {
	t.Salt = salt
	t.NewColorScheme()
}

func (t *Tree) eachNonRoot(fn func(*Node)) {
	if t.Root == nil {
		return
	}
	for _, c := range t.Root.Children {
		walk(c, 1, func(n *Node, _ int) bool {
			fn(n)
			return true
		})
	}
}

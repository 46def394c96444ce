package session

import (
	"fmt"
	"strings"

	"github.com/metaflame/internal/geometry"
)

// View names one of the three rendered panes.
type View string

const (
	ViewLeft      View = "left"
	ViewRight     View = "right"
	ViewInspector View = "inspector"
)

// AllViews lists every view in render order.
var AllViews = []View{ViewLeft, ViewRight, ViewInspector}

// ParseView parses a view name.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(s)) {
	case ViewLeft:
		return ViewLeft, nil
	case ViewRight:
		return ViewRight, nil
	case ViewInspector:
		return ViewInspector, nil
	default:
		return "", fmt.Errorf("unknown view: %s", s)
	}
}

// IsOverview reports whether v is one of the 3D overviews.
func (v View) IsOverview() bool {
	return v == ViewLeft || v == ViewRight
}

// Settings configure one view. Thread selects the inspected thread when the inspector
// runs on the thread axis; overviews ignore it.
type Settings struct {
	geometry.Options
	Thread int `json:"thread"`
}

// HighlightMode selects how non-matching nodes are de-emphasized.
type HighlightMode int

const (
	HighlightHide HighlightMode = iota
	HighlightDarken
)

// String returns the string representation of HighlightMode.
func (m HighlightMode) String() string {
	switch m {
	case HighlightHide:
		return "hide"
	case HighlightDarken:
		return "darken"
	default:
		return "unknown"
	}
}

// ParseHighlightMode parses a highlight mode name. The empty string means hide.
func ParseHighlightMode(s string) (HighlightMode, error) {
	switch strings.ToLower(s) {
	case "", "hide":
		return HighlightHide, nil
	case "darken", "dark":
		return HighlightDarken, nil
	default:
		return 0, fmt.Errorf("unknown highlight mode: %s", s)
	}
}

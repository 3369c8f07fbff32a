// Package slots discovers and orders media insertion points in a page
// document. Upstream converter output is inconsistently authored, so
// discovery accumulates evidence of decreasing confidence instead of trusting
// any single marker.
package slots

import (
	"math"

	"github.com/beevik/etree"
)

// Rect is an axis-aligned rectangle in the page's rendered coordinate space.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func (r Rect) Area() float64 {
	return r.Width * r.Height
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

// Center returns the rectangle's middle point.
func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// CenterDistance is the distance from a point to the rectangle's center.
func (r Rect) CenterDistance(x, y float64) float64 {
	cx, cy := r.Center()
	return math.Hypot(x-cx, y-cy)
}

// EdgeDistance is the distance from a point to the nearest edge of the
// rectangle, zero inside it.
func (r Rect) EdgeDistance(x, y float64) float64 {
	dx := math.Max(math.Max(r.Left-x, 0), x-(r.Left+r.Width))
	dy := math.Max(math.Max(r.Top-y, 0), y-(r.Top+r.Height))
	return math.Hypot(dx, dy)
}

// Geometry carries layout measurements for page elements keyed by id. Layout
// is computed by the hosting canvas, never by the engine; an empty Geometry
// simply leaves slots without bounds.
type Geometry map[string]Rect

// Kind is the tag-derived role of a slot element.
type Kind int

const (
	KindPlaceholder Kind = iota // empty container element
	KindMedia                   // media element
	KindAmbiguous               // neither a container nor a media tag
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindMedia:
		return "media"
	default:
		return "ambiguous"
	}
}

// State tells whether a slot currently holds media. It is derived from the
// underlying element on every index run, never stored independently.
type State int

const (
	StateEmpty State = iota
	StateFilled
)

func (s State) String() string {
	if s == StateFilled {
		return "filled"
	}
	return "empty"
}

// Slot is one insertion point of the page.
type Slot struct {
	ID     string
	Kind   Kind
	Bounds *Rect // nil until layout has been measured
	State  State
	Order  int // 1-based rank after row-major sorting
	Label  string
	Style  string

	// Element is the backing tree node, nil when the page text did not
	// parse and the slot was recovered by text scanning.
	Element *etree.Element

	seen int // discovery sequence, used to keep first-seen order stable
}

// Filled reports whether the slot currently holds media.
func (s *Slot) Filled() bool {
	return s.State == StateFilled
}

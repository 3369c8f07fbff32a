// Package resolve maps pointer positions to slots. Drop events arrive with
// nothing but coordinates, while the page's bounds data may be stale or
// missing, so resolution runs a chain of strategies of decreasing
// reliability.
package resolve

import (
	"errors"
	"math"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"pagefill/css"
	"pagefill/slots"
)

// ErrResolution means no slot could be resolved from a pointer position by
// any strategy. Callers treat it as a no-op drop, not a user-facing error.
var ErrResolution = errors.New("no slot at pointer position")

// Tolerances for the coordinate proximity fallback, in rendered units.
// Freely positioned slots get more slack because their measured bounds drift
// further from the converter's intent.
const (
	DefaultFlowedTolerance     = 150.0
	DefaultPositionedTolerance = 200.0
)

// HitTester reports the markup element physically at a point. Layout is
// owned by the hosting canvas, so this is a caller-supplied capability;
// coordinates must already be translated into the page's coordinate space.
type HitTester interface {
	ElementAt(x, y float64) *etree.Element
}

// Resolver maps a pointer position to exactly one slot. The zero tolerances
// fall back to defaults.
type Resolver struct {
	FlowedTolerance     float64
	PositionedTolerance float64

	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{
		FlowedTolerance:     DefaultFlowedTolerance,
		PositionedTolerance: DefaultPositionedTolerance,
		log:                 log,
	}
}

// Resolve runs the strategy chain, first success wins:
//  1. the element at the pointer is itself a slot;
//  2. the nearest enclosing element carrying the slot marker;
//  3. the element at the pointer lies inside a known slot's subtree;
//  4. coordinate proximity against measured bounds, within tolerance.
//
// It is cheap enough to run on every pointer move event.
func (r *Resolver) Resolve(ix *slots.Index, ht HitTester, x, y float64) (*slots.Slot, error) {
	var hit *etree.Element
	if ht != nil {
		hit = ht.ElementAt(x, y)
	}

	if hit != nil {
		// exact containment
		if s := r.slotForElement(ix, hit); s != nil {
			return s, nil
		}
		// ancestor containment: nested markup inside a slot
		for el := hit.Parent(); el != nil; el = el.Parent() {
			if s := r.slotForElement(ix, el); s != nil {
				return s, nil
			}
		}
		// reverse containment: slots that are not leaf nodes and were
		// indexed without the marker on the element the pointer hit
		for _, s := range ix.Slots {
			if s.Element != nil && contains(s.Element, hit) {
				return s, nil
			}
		}
	}

	// proximity fallback for stale or missing hit data
	if s := r.nearest(ix, x, y); s != nil {
		return s, nil
	}

	r.log.Debug("Drop position resolved to no slot", zap.Float64("x", x), zap.Float64("y", y))
	return nil, ErrResolution
}

// slotForElement matches an element to an indexed slot by id, falling back
// to the canonical marker for elements the index has under another pointer
// identity.
func (r *Resolver) slotForElement(ix *slots.Index, el *etree.Element) *slots.Slot {
	if el == nil {
		return nil
	}
	if id := el.SelectAttrValue("id", ""); id != "" {
		if s, ok := ix.Get(id); ok {
			return s
		}
	}
	if slots.HasMarker(el.SelectAttrValue("class", "")) {
		if s, ok := ix.Get(el.SelectAttrValue("id", "")); ok {
			return s
		}
	}
	return nil
}

// nearest implements the coordinate proximity strategy: for every slot with
// measured bounds take min(center distance, nearest edge distance) and
// accept the closest slot within its tolerance. Ties break on the earliest
// order rank.
func (r *Resolver) nearest(ix *slots.Index, x, y float64) *slots.Slot {
	var (
		best     *slots.Slot
		bestDist = math.Inf(1)
	)
	for _, s := range ix.Slots {
		if s.Bounds == nil {
			continue
		}
		dist := math.Min(s.Bounds.CenterDistance(x, y), s.Bounds.EdgeDistance(x, y))
		if dist > r.tolerance(s) {
			continue
		}
		if dist < bestDist || (dist == bestDist && best != nil && s.Order < best.Order) {
			best = s
			bestDist = dist
		}
	}
	return best
}

func (r *Resolver) tolerance(s *slots.Slot) float64 {
	flowed, positioned := r.FlowedTolerance, r.PositionedTolerance
	if flowed <= 0 {
		flowed = DefaultFlowedTolerance
	}
	if positioned <= 0 {
		positioned = DefaultPositionedTolerance
	}
	if css.ParseStyle(s.Style).Positioned() {
		return positioned
	}
	return flowed
}

func contains(ancestor, el *etree.Element) bool {
	for p := el; p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// BoundsHitTester is a hit tester derived from measured slot bounds, for
// hosts that cannot do real point-to-element lookup. The smallest-area slot
// containing the point wins, matching how overlapping nested elements hit.
type BoundsHitTester struct {
	Index *slots.Index
}

func (h BoundsHitTester) ElementAt(x, y float64) *etree.Element {
	var best *slots.Slot
	for _, s := range h.Index.Slots {
		if s.Bounds == nil || s.Element == nil || !s.Bounds.Contains(x, y) {
			continue
		}
		if best == nil || s.Bounds.Area() < best.Bounds.Area() {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	return best.Element
}

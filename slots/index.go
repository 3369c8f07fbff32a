package slots

import (
	"sort"

	"go.uber.org/zap"

	"pagefill/markup"
)

// DefaultRowTolerance is the vertical band, in rendered units, within which
// slots are treated as one row when sorting.
const DefaultRowTolerance = 12.0

// Options tunes index construction. The zero value uses defaults.
type Options struct {
	RowTolerance float64
}

func (o Options) rowTolerance() float64 {
	if o.RowTolerance > 0 {
		return o.RowTolerance
	}
	return DefaultRowTolerance
}

// Index is an ordered, deduplicated snapshot of the page's slots. It is
// recomputed from the Document on every run and never mutated independently
// of it.
type Index struct {
	Slots []*Slot

	byID map[string]*Slot
}

// BuildIndex scans a Document and produces its slot index. Parsed pages use
// tree queries; pages the parser rejected fall back to raw text matching.
// Discovery by a lower-confidence tier promotes the element in place by
// tagging the canonical marker, so repeated runs see it at highest
// confidence - the operation is idempotent.
func BuildIndex(doc *markup.Document, geom Geometry, opts Options, log *zap.Logger) *Index {
	var sc Scanner
	if doc.Parsed() {
		sc = NewTreeScanner(doc.Tree, geom, log)
	} else {
		sc = NewTextScanner(doc.Text, geom, log)
	}
	return buildFromCandidates(sc.Scan(), geom, opts, log)
}

func buildFromCandidates(cands []Candidate, geom Geometry, opts Options, log *zap.Logger) *Index {
	ix := &Index{byID: make(map[string]*Slot)}

	for _, c := range cands {
		if c.ID == "" {
			// a slot without identity cannot be targeted by mutations
			log.Debug("Slot candidate without id, skipping", zap.String("tier", c.Tier.String()))
			continue
		}
		if existing, ok := ix.byID[c.ID]; ok {
			// first seen wins; the only exception is media claiming an id a
			// placeholder was found under - filled state is authoritative
			if c.Filled && !existing.Filled() {
				existing.State = StateFilled
				existing.Kind = KindMedia
				existing.Element = c.Element
				log.Debug("Media element claims placeholder id", zap.String("id", c.ID))
			}
			continue
		}

		s := &Slot{
			ID:      c.ID,
			Kind:    c.Kind,
			Label:   c.Label,
			Style:   c.Style,
			Element: c.Element,
			seen:    len(ix.byID),
		}
		if c.Filled {
			s.State = StateFilled
		}
		if r, ok := geom[c.ID]; ok {
			bounds := r
			s.Bounds = &bounds
		}
		if !c.Filled && c.Tier > TierMarker && c.Element != nil {
			promote(s)
		}
		ix.byID[c.ID] = s
		ix.Slots = append(ix.Slots, s)
	}

	ix.sort(opts.rowTolerance())
	return ix
}

// promote tags an element discovered by a lower-confidence rule with the
// canonical marker so subsequent passes see it at highest confidence.
func promote(s *Slot) {
	class := s.Element.SelectAttrValue("class", "")
	if HasMarker(class) {
		return
	}
	s.Element.RemoveAttr("class")
	s.Element.CreateAttr("class", AddMarker(class))
}

// sort orders slots row-major: ascending top with a tolerance band, then
// ascending left within a row. Slots without bounds go last in first-seen
// order. Order ranks are 1-based.
func (ix *Index) sort(rowTolerance float64) {
	sort.SliceStable(ix.Slots, func(i, j int) bool {
		a, b := ix.Slots[i], ix.Slots[j]
		switch {
		case a.Bounds == nil && b.Bounds == nil:
			return a.seen < b.seen
		case a.Bounds == nil:
			return false
		case b.Bounds == nil:
			return true
		}
		dy := a.Bounds.Top - b.Bounds.Top
		if dy < -rowTolerance {
			return true
		}
		if dy > rowTolerance {
			return false
		}
		return a.Bounds.Left < b.Bounds.Left
	})
	for i, s := range ix.Slots {
		s.Order = i + 1
	}
}

// Get looks a slot up by id.
func (ix *Index) Get(id string) (*Slot, bool) {
	s, ok := ix.byID[id]
	return s, ok
}

// Empty returns slots not currently holding media, in order.
func (ix *Index) Empty() []*Slot {
	var out []*Slot
	for _, s := range ix.Slots {
		if !s.Filled() {
			out = append(out, s)
		}
	}
	return out
}

// Len reports the number of slots.
func (ix *Index) Len() int {
	return len(ix.Slots)
}

// StructurallyEqual reports whether two snapshots agree on identifiers,
// states and order for every slot.
func (ix *Index) StructurallyEqual(other *Index) bool {
	if len(ix.Slots) != len(other.Slots) {
		return false
	}
	for i := range ix.Slots {
		a, b := ix.Slots[i], other.Slots[i]
		if a.ID != b.ID || a.State != b.State || a.Order != b.Order {
			return false
		}
	}
	return true
}

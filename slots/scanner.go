package slots

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Verdict is the typed outcome of one confidence predicate applied to one
// element.
type Verdict int

const (
	VerdictNoMatch Verdict = iota
	VerdictMatch
	VerdictAmbiguous
)

// Tier identifies which evidence rule discovered a candidate. Lower values
// are more reliable.
type Tier int

const (
	TierMarker Tier = iota // canonical marker class
	TierNaming             // id naming convention on an empty container
	TierLabel              // descriptive label with measured nonzero bounds
)

func (t Tier) String() string {
	switch t {
	case TierMarker:
		return "marker"
	case TierNaming:
		return "naming"
	default:
		return "label"
	}
}

// Candidate is tagged evidence produced by a scanner before the merge step.
type Candidate struct {
	ID      string
	Tier    Tier
	Kind    Kind
	Filled  bool
	Label   string
	Style   string
	Element *etree.Element // nil for text-scanned pages
}

// Scanner produces slot candidates in document order. Two implementations
// exist: tree queries for parsed pages and raw text matching for pages the
// parser rejected. The confidence-tier logic is shared through the verdict
// predicates so it is written once.
type Scanner interface {
	Scan() []Candidate
}

// TreeScanner discovers candidates with tree queries over a parsed page.
type TreeScanner struct {
	tree *etree.Document
	geom Geometry
	log  *zap.Logger
}

func NewTreeScanner(tree *etree.Document, geom Geometry, log *zap.Logger) *TreeScanner {
	return &TreeScanner{tree: tree, geom: geom, log: log}
}

func (s *TreeScanner) Scan() []Candidate {
	var out []Candidate
	if s.tree == nil || s.tree.Root() == nil {
		return out
	}
	s.walk(s.tree.Root(), &out)
	return out
}

func (s *TreeScanner) walk(el *etree.Element, out *[]Candidate) {
	if c, ok := s.classify(el); ok {
		*out = append(*out, c)
	}
	for _, child := range el.ChildElements() {
		s.walk(child, out)
	}
}

// classify applies the evidence pipeline to one element: media elements with
// conventional ids become filled candidates, everything else runs through the
// confidence predicates in tier order, first match wins.
func (s *TreeScanner) classify(el *etree.Element) (Candidate, bool) {
	id := el.SelectAttrValue("id", "")

	if strings.EqualFold(el.Tag, "img") {
		if HasMarker(el.SelectAttrValue("class", "")) {
			return s.candidate(el, id, TierMarker, true), true
		}
		if IDMatchesConvention(id) {
			return s.candidate(el, id, TierNaming, true), true
		}
		return Candidate{}, false
	}

	tiers := []struct {
		tier    Tier
		verdict func(*etree.Element) Verdict
	}{
		{TierMarker, s.markerVerdict},
		{TierNaming, s.namingVerdict},
		{TierLabel, s.labelVerdict},
	}
	for _, t := range tiers {
		switch t.verdict(el) {
		case VerdictMatch:
			return s.candidate(el, id, t.tier, false), true
		case VerdictAmbiguous:
			s.log.Debug("Ambiguous slot evidence, skipping element",
				zap.String("id", id), zap.String("tag", el.Tag), zap.String("tier", t.tier.String()))
			return Candidate{}, false
		}
	}
	return Candidate{}, false
}

func (s *TreeScanner) candidate(el *etree.Element, id string, tier Tier, filled bool) Candidate {
	return Candidate{
		ID:      id,
		Tier:    tier,
		Kind:    kindOfTag(el.Tag),
		Filled:  filled,
		Label:   el.SelectAttrValue("title", ""),
		Style:   el.SelectAttrValue("style", ""),
		Element: el,
	}
}

// markerVerdict: the element carries the canonical marker class. Media
// elements never reach this predicate, they are claimed as filled slots
// before the tiers run.
func (s *TreeScanner) markerVerdict(el *etree.Element) Verdict {
	if !HasMarker(el.SelectAttrValue("class", "")) {
		return VerdictNoMatch
	}
	return VerdictMatch
}

// namingVerdict: conventional id on an element with no text content and no
// nested media. A conventional id on a non-empty element is conflicting
// evidence.
func (s *TreeScanner) namingVerdict(el *etree.Element) Verdict {
	if !IDMatchesConvention(el.SelectAttrValue("id", "")) {
		return VerdictNoMatch
	}
	if hasTextContent(el) || hasNestedMedia(el) {
		return VerdictAmbiguous
	}
	return VerdictMatch
}

// labelVerdict: descriptive label attribute, empty element and measured
// nonzero bounds. Only usable once layout has been computed, which is why it
// is the lowest tier.
func (s *TreeScanner) labelVerdict(el *etree.Element) Verdict {
	if el.SelectAttrValue("title", "") == "" {
		return VerdictNoMatch
	}
	if hasTextContent(el) || hasNestedMedia(el) {
		return VerdictNoMatch
	}
	r, ok := s.geom[el.SelectAttrValue("id", "")]
	if !ok || r.Area() <= 0 {
		return VerdictNoMatch
	}
	return VerdictMatch
}

func kindOfTag(tag string) Kind {
	switch strings.ToLower(tag) {
	case "div", "span", "p", "section", "figure":
		return KindPlaceholder
	case "img":
		return KindMedia
	default:
		return KindAmbiguous
	}
}

// hasTextContent reports whether the element or any descendant carries
// non-whitespace character data.
func hasTextContent(el *etree.Element) bool {
	for _, node := range el.Child {
		switch token := node.(type) {
		case *etree.CharData:
			if strings.TrimSpace(token.Data) != "" {
				return true
			}
		case *etree.Element:
			if hasTextContent(token) {
				return true
			}
		}
	}
	return false
}

func hasNestedMedia(el *etree.Element) bool {
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, "img") || hasNestedMedia(child) {
			return true
		}
	}
	return false
}

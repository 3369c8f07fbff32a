package slots

import (
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// TextScanner recovers slot candidates from raw page text with attribute and
// tag pattern matching. It is the fallback for pages the parser rejected and
// accepts reduced precision: element emptiness cannot be verified without a
// tree, so attribute evidence alone decides.
type TextScanner struct {
	text string
	geom Geometry
	log  *zap.Logger
}

var (
	startTagRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)((?:[^>"']|"[^"]*"|'[^']*')*?)/?>`)
	attrRe     = regexp.MustCompile(`([a-zA-Z_:][-a-zA-Z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

func NewTextScanner(text string, geom Geometry, log *zap.Logger) *TextScanner {
	return &TextScanner{text: text, geom: geom, log: log}
}

func (s *TextScanner) Scan() []Candidate {
	var out []Candidate
	for _, m := range startTagRe.FindAllStringSubmatch(s.text, -1) {
		tag, attrs := m[1], parseAttrs(m[2])
		if c, ok := s.classify(tag, attrs); ok {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		s.log.Debug("Recovered slots from malformed page text", zap.Int("count", len(out)))
	}
	return out
}

// classify mirrors the tree scanner's tier order on an attribute map.
func (s *TextScanner) classify(tag string, attrs map[string]string) (Candidate, bool) {
	id := attrs["id"]

	if strings.EqualFold(tag, "img") {
		if HasMarker(attrs["class"]) {
			return s.candidate(tag, id, TierMarker, true, attrs), true
		}
		if IDMatchesConvention(id) {
			return s.candidate(tag, id, TierNaming, true, attrs), true
		}
		return Candidate{}, false
	}

	switch {
	case HasMarker(attrs["class"]):
		return s.candidate(tag, id, TierMarker, false, attrs), true
	case IDMatchesConvention(id):
		return s.candidate(tag, id, TierNaming, false, attrs), true
	case attrs["title"] != "":
		if r, ok := s.geom[id]; ok && r.Area() > 0 {
			return s.candidate(tag, id, TierLabel, false, attrs), true
		}
	}
	return Candidate{}, false
}

func (s *TextScanner) candidate(tag, id string, tier Tier, filled bool, attrs map[string]string) Candidate {
	return Candidate{
		ID:     id,
		Tier:   tier,
		Kind:   kindOfTag(tag),
		Filled: filled,
		Label:  attrs["title"],
		Style:  attrs["style"],
	}
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		attrs[strings.ToLower(m[1])] = html.UnescapeString(value)
	}
	return attrs
}

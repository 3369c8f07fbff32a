package slots

import (
	"regexp"
	"strings"
)

// Conventions the upstream conversion pipeline follows on a best-effort
// basis. None of them is guaranteed, which is why discovery runs several
// evidence tiers instead of a single query.
const (
	// MarkerClass is the canonical "is a slot" class value. MarkerClassAlt
	// is an older spelling still produced by some converter versions; the
	// two are synonyms everywhere.
	MarkerClass    = "image-placeholder"
	MarkerClassAlt = "img-placeholder"

	// OverlayClass marks the interactive wrapper the editor places around a
	// slot. Mutations must reuse it instead of nesting a second one.
	OverlayClass = "slot-overlay"
)

// idPattern matches the converter's element naming: page<N>_div<M> for block
// containers, page<N>_img<M> for images. Uniqueness is only assumed within
// one document.
var idPattern = regexp.MustCompile(`^page\d+_(?:div|img)\d+$`)

// IDMatchesConvention reports whether an element id follows the converter's
// naming scheme.
func IDMatchesConvention(id string) bool {
	return idPattern.MatchString(id)
}

// HasMarker reports whether a class attribute value contains the canonical
// slot marker under either accepted spelling.
func HasMarker(class string) bool {
	for _, c := range strings.Fields(class) {
		if c == MarkerClass || c == MarkerClassAlt {
			return true
		}
	}
	return false
}

// HasOverlay reports whether a class attribute value marks the interactive
// overlay wrapper.
func HasOverlay(class string) bool {
	for _, c := range strings.Fields(class) {
		if c == OverlayClass {
			return true
		}
	}
	return false
}

// AddMarker returns the class value with the canonical marker prepended when
// it is not already present under either spelling.
func AddMarker(class string) string {
	if HasMarker(class) {
		return class
	}
	if strings.TrimSpace(class) == "" {
		return MarkerClass
	}
	return MarkerClass + " " + class
}

// Package css handles inline style attributes on page elements. Slot
// discovery needs position information out of them and mutations must carry
// explicit sizing across fill/clear transitions, so declarations are kept
// ordered and rendered back the way they came in.
package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is a single property: value pair from a style attribute.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered list of inline declarations. The zero value is usable
// and renders to an empty string.
type Style struct {
	decls []Declaration
}

// ParseStyle parses the content of a style attribute. Unparsable input
// degrades to whatever declarations the tokenizer could recover; upstream
// converter output is not trusted to be clean.
func ParseStyle(s string) Style {
	var st Style
	if strings.TrimSpace(s) == "" {
		return st
	}

	input := parse.NewInput(strings.NewReader(s))
	parser := css.NewParser(input, true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return st
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			st.decls = append(st.decls, Declaration{
				Property: strings.ToLower(string(data)),
				Value:    renderTokens(parser.Values()),
			})
		}
	}
}

// renderTokens assembles declaration value tokens back into a string,
// collapsing whitespace runs to single spaces.
func renderTokens(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 && !strings.HasSuffix(parts[len(parts)-1], " ") {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// Get returns the last value declared for a property, CSS override order.
func (s Style) Get(property string) (string, bool) {
	property = strings.ToLower(property)
	for i := len(s.decls) - 1; i >= 0; i-- {
		if s.decls[i].Property == property {
			return s.decls[i].Value, true
		}
	}
	return "", false
}

// Set appends or replaces a declaration, keeping original order for
// properties already present.
func (s *Style) Set(property, value string) {
	property = strings.ToLower(property)
	for i := range s.decls {
		if s.decls[i].Property == property {
			s.decls[i].Value = value
			return
		}
	}
	s.decls = append(s.decls, Declaration{Property: property, Value: value})
}

// Subset returns a new Style holding only the listed properties, in the
// receiver's declaration order.
func (s Style) Subset(properties ...string) Style {
	want := make(map[string]struct{}, len(properties))
	for _, p := range properties {
		want[strings.ToLower(p)] = struct{}{}
	}
	var out Style
	for _, d := range s.decls {
		if _, ok := want[d.Property]; ok {
			out.decls = append(out.decls, d)
		}
	}
	return out
}

// Sizing returns the explicit width/height declarations of the element,
// exactly what must survive a fill/clear transition.
func (s Style) Sizing() Style {
	return s.Subset("width", "height", "max-width", "max-height")
}

// Positioned reports whether the element is freely positioned rather than
// normally flowed.
func (s Style) Positioned() bool {
	v, ok := s.Get("position")
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "absolute", "fixed":
		return true
	}
	return false
}

// Empty reports whether there are no declarations.
func (s Style) Empty() bool {
	return len(s.decls) == 0
}

// Merge overlays other's declarations onto a copy of s.
func (s Style) Merge(other Style) Style {
	out := Style{decls: append([]Declaration(nil), s.decls...)}
	for _, d := range other.decls {
		out.Set(d.Property, d.Value)
	}
	return out
}

// String renders declarations back to style attribute form.
func (s Style) String() string {
	if len(s.decls) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range s.decls {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
	}
	return b.String()
}

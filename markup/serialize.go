package markup

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Void elements that must stay self-closing in XHTML output.
var voidTags = map[string]struct{}{
	"br":    {},
	"hr":    {},
	"img":   {},
	"input": {},
	"link":  {},
	"meta":  {},
}

// Serialize renders a mutated tree back to page text, restoring conventions
// the parser normalizes away: void elements collapse to self-closing form and
// the XML declaration / doctype are copied verbatim from the original text
// instead of whatever the parser kept.
func Serialize(tree *etree.Document, originalText string) (string, error) {
	if tree == nil {
		return "", fmt.Errorf("nil tree")
	}
	collapseVoids(tree.Root())
	out, err := tree.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize page: %w", err)
	}
	return restoreProlog(out, originalText), nil
}

// collapseVoids drops whitespace-only character data from void elements so
// etree writes them as <tag/> instead of <tag> </tag>.
func collapseVoids(el *etree.Element) {
	if el == nil {
		return
	}
	if _, void := voidTags[strings.ToLower(el.Tag)]; void {
		for i := len(el.Child) - 1; i >= 0; i-- {
			if cd, ok := el.Child[i].(*etree.CharData); ok && strings.TrimSpace(cd.Data) == "" {
				el.RemoveChildAt(i)
			}
		}
	}
	for _, child := range el.ChildElements() {
		collapseVoids(child)
	}
}

// restoreProlog replaces everything before the root start tag of serialized
// output with the corresponding head of the original text. Parsers tend to
// normalize the XML declaration and drop or rewrite the doctype; the original
// author's prolog is authoritative.
func restoreProlog(serialized, original string) string {
	origHead, ok := prologOf(original)
	if !ok {
		return serialized
	}
	_, body := splitProlog(serialized)
	return origHead + body
}

// prologOf returns the original text up to the root start tag when it holds
// an XML declaration or doctype worth preserving.
func prologOf(text string) (string, bool) {
	head, _ := splitProlog(text)
	trimmed := strings.TrimSpace(head)
	if trimmed == "" {
		return "", false
	}
	if !strings.HasPrefix(trimmed, "<?xml") && !strings.HasPrefix(strings.ToUpper(trimmed), "<!DOCTYPE") {
		return "", false
	}
	return head, true
}

// splitProlog cuts text at the first start tag that opens an element, i.e.
// "<" followed by a name character. Processing instructions, directives and
// comments all start differently and stay in the head.
func splitProlog(text string) (head, body string) {
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		c := text[i+1]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			return text[:i], text[i:]
		}
	}
	return "", text
}

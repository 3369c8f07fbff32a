// Package markup implements the document model for editable XHTML pages.
// Pages come from an upstream PDF-to-XHTML conversion step and are frequently
// malformed, so every entry point tolerates text that does not parse.
package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrParse marks page text that could not be parsed into a tree. It is
// recovered locally by text scanning and is never fatal by itself.
var ErrParse = errors.New("markup parse failure")

// Document is an immutable snapshot of one page: the authoritative markup
// text plus, when the text is well-formed, a parsed tree. Mutations never
// edit a Document in place - they produce a new one.
type Document struct {
	Text string
	Tree *etree.Document // nil when parsing failed

	parseErr error
}

// Parse builds a Document from page text. On parse failure the Document is
// still returned carrying the original text and the recorded error, so slot
// discovery can fall back to text scanning.
func Parse(text string, log *zap.Logger) *Document {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(text); err != nil {
		log.Warn("Page markup is not well-formed, tree operations disabled", zap.Error(err))
		return &Document{Text: text, parseErr: fmt.Errorf("%w: %v", ErrParse, err)}
	}
	if tree.Root() == nil {
		log.Warn("Page markup has no root element, tree operations disabled")
		return &Document{Text: text, parseErr: fmt.Errorf("%w: no root element", ErrParse)}
	}
	return &Document{Text: text, Tree: tree}
}

// Parsed reports whether the snapshot carries a usable tree.
func (d *Document) Parsed() bool {
	return d.Tree != nil
}

// ParseErr returns the recorded parse failure, nil for well-formed pages.
func (d *Document) ParseErr() error {
	return d.parseErr
}

// MediaCount reports the number of media elements in the snapshot.
func (d *Document) MediaCount() int {
	return MediaCount(d.Text)
}

// CopyTree returns a deep copy of the parsed tree for mutation, nil when the
// page did not parse. The snapshot itself is never handed out for editing.
func (d *Document) CopyTree() *etree.Document {
	if d.Tree == nil {
		return nil
	}
	return d.Tree.Copy()
}

// MediaCount counts media (img) elements in raw page text. It deliberately
// does not go through the tree so the count is available for malformed pages
// and can cross-check serialized output; the lenient HTML tokenizer accepts
// anything the upstream converter produces.
func MediaCount(text string) int {
	z := html.NewTokenizer(strings.NewReader(text))
	count := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return count
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); len(name) == 3 && string(name) == "img" {
				count++
			}
		}
	}
}

// FindByID returns the first element carrying the given id attribute in
// document order, nil when absent.
func FindByID(tree *etree.Document, id string) *etree.Element {
	if tree == nil || id == "" {
		return nil
	}
	return findByID(tree.Root(), id)
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.SelectAttrValue("id", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

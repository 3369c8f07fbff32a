// Package engine applies slot mutations to page documents. Every operation
// is a pure function from one immutable document snapshot to the next: the
// input is never modified, the produced text runs through an integrity guard
// and a reconciliation pass before it is handed back, and any failure leaves
// the caller holding the prior snapshot.
package engine

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"pagefill/css"
	"pagefill/markup"
	"pagefill/media"
	"pagefill/resolve"
	"pagefill/slots"
)

// Engine carries the tunables shared by every mutation: fill mode, index
// options and the pointer resolver.
type Engine struct {
	Mode     slots.FillMode
	Slots    slots.Options
	Resolver *resolve.Resolver
	Sessions *resolve.Board

	log *zap.Logger
}

func New(mode slots.FillMode, log *zap.Logger) *Engine {
	return &Engine{
		Mode:     mode,
		Resolver: resolve.NewResolver(log),
		Sessions: resolve.NewBoard(log),
		log:      log,
	}
}

// Result is a committed mutation: the new document snapshot and the slot
// index already reconciled against it.
type Result struct {
	Document *markup.Document
	Index    *slots.Index
	SlotID   string
}

// Index builds the slot index of a document under the engine's options.
func (e *Engine) Index(doc *markup.Document, geom slots.Geometry) *slots.Index {
	return slots.BuildIndex(doc, geom, e.Slots, e.log)
}

// Fill replaces the placeholder slot with a media element referencing ref.
// The replacement keeps the slot's identity: same id, label copied to title
// and alt, explicit sizing copied from the placeholder's inline style.
func (e *Engine) Fill(doc *markup.Document, geom slots.Geometry, slotID string, ref media.Reference) (*Result, error) {
	ix := e.Index(doc, geom)
	s, ok := ix.Get(slotID)
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", slotID, ErrSlotNotFound)
	}
	if s.Filled() || s.Kind == slots.KindMedia {
		return nil, fmt.Errorf("fill %q: %w: already holds media", slotID, ErrWrongKind)
	}
	if err := slots.CheckTarget(ix, e.Mode, slotID); err != nil {
		return nil, fmt.Errorf("fill %q: %w", slotID, err)
	}
	if !doc.Parsed() {
		return nil, fmt.Errorf("fill %q: page text is not mutable: %w", slotID, doc.ParseErr())
	}

	tree := doc.CopyTree()
	el := markup.FindByID(tree, slotID)
	if el == nil {
		return nil, fmt.Errorf("fill %q: %w: id lost between index and tree", slotID, ErrSlotNotFound)
	}

	img := etree.NewElement("img")
	img.CreateAttr("id", slotID)
	img.CreateAttr("class", slots.AddMarker(""))
	img.CreateAttr("src", ref.Path)
	if s.Label != "" {
		img.CreateAttr("title", s.Label)
		img.CreateAttr("alt", s.Label)
	}
	if sizing := css.ParseStyle(s.Style).Sizing(); !sizing.Empty() {
		img.CreateAttr("style", sizing.String())
	}
	// replacing in place keeps any enclosing overlay wrapper and never
	// nests the media into the placeholder
	if err := replaceElement(el, img); err != nil {
		return nil, fmt.Errorf("fill %q: %w", slotID, err)
	}

	return e.commit("fill", doc, geom, slotID, tree, slots.StateFilled, doc.MediaCount()+1)
}

// Clear is the inverse of Fill: the media element is replaced by a
// placeholder carrying the canonical marker, the same id and the copied
// label and sizing.
func (e *Engine) Clear(doc *markup.Document, geom slots.Geometry, slotID string) (*Result, error) {
	ix := e.Index(doc, geom)
	s, ok := ix.Get(slotID)
	if !ok {
		return nil, fmt.Errorf("clear %q: %w", slotID, ErrSlotNotFound)
	}
	if !s.Filled() || s.Kind != slots.KindMedia {
		return nil, fmt.Errorf("clear %q: %w: holds no media", slotID, ErrWrongKind)
	}
	if !doc.Parsed() {
		return nil, fmt.Errorf("clear %q: page text is not mutable: %w", slotID, doc.ParseErr())
	}

	tree := doc.CopyTree()
	el := markup.FindByID(tree, slotID)
	if el == nil {
		return nil, fmt.Errorf("clear %q: %w: id lost between index and tree", slotID, ErrSlotNotFound)
	}

	div := etree.NewElement("div")
	div.CreateAttr("id", slotID)
	div.CreateAttr("class", slots.MarkerClass)
	if s.Label != "" {
		div.CreateAttr("title", s.Label)
	}
	if sizing := css.ParseStyle(s.Style).Sizing(); !sizing.Empty() {
		div.CreateAttr("style", sizing.String())
	}
	if err := replaceElement(el, div); err != nil {
		return nil, fmt.Errorf("clear %q: %w", slotID, err)
	}

	return e.commit("clear", doc, geom, slotID, tree, slots.StateEmpty, doc.MediaCount()-1)
}

// Drop is the end-to-end pointer path: resolve the position to a slot, then
// fill it under the policy. Resolution failures come back as ErrResolution
// and are a no-op for the caller.
func (e *Engine) Drop(doc *markup.Document, geom slots.Geometry, ht resolve.HitTester, x, y float64, ref media.Reference) (*Result, error) {
	ix := e.Index(doc, geom)
	s, err := e.Resolver.Resolve(ix, ht, x, y)
	if err != nil {
		return nil, err
	}
	return e.Fill(doc, geom, s.ID, ref)
}

// BeginDrag opens a drag session for ref on the engine's session board.
func (e *Engine) BeginDrag(ref media.Reference) *resolve.Session {
	return e.Sessions.Begin(ref)
}

// DropSession completes the active drag session at the given position. The
// session ends only when the drop commits; a rejected drop leaves it in
// flight so the user can try another spot.
func (e *Engine) DropSession(doc *markup.Document, geom slots.Geometry, ht resolve.HitTester, x, y float64) (*Result, error) {
	sess := e.Sessions.Current()
	if sess == nil {
		return nil, fmt.Errorf("no drag in flight")
	}
	res, err := e.Drop(doc, geom, ht, x, y, sess.Media)
	if err != nil {
		return nil, err
	}
	e.Sessions.End(sess.ID)
	return res, nil
}

// Insert fills with no specific target: the policy picks the slot. This is
// the programmatic path, e.g. "add next image" without a pointer.
func (e *Engine) Insert(doc *markup.Document, geom slots.Geometry, ref media.Reference) (*Result, error) {
	ix := e.Index(doc, geom)
	s, err := slots.Redirect(ix, e.Mode)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return e.Fill(doc, geom, s.ID, ref)
}

// commit serializes a mutated tree and gates it twice: the media element
// count must move by exactly the intended amount, and a fresh index over the
// reparsed text must show the target slot in the intended state. Either gate
// failing discards the produced text.
func (e *Engine) commit(op string, doc *markup.Document, geom slots.Geometry, slotID string, tree *etree.Document, want slots.State, wantCount int) (*Result, error) {
	text, err := markup.Serialize(tree, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("%s %q: serialize: %w", op, slotID, err)
	}

	before, after := doc.MediaCount(), markup.MediaCount(text)
	if after != wantCount {
		return nil, &IntegrityError{Op: op, SlotID: slotID, Before: before, After: after,
			Reason: "media element count does not reflect the change"}
	}

	next := markup.Parse(text, e.log)
	ix := e.Index(next, geom)
	if s, ok := ix.Get(slotID); !ok || s.State != want {
		return nil, &IntegrityError{Op: op, SlotID: slotID, Before: before, After: after,
			Reason: "reconciled slot state does not match intent"}
	}

	e.log.Debug("Committed page mutation",
		zap.String("op", op), zap.String("slot", slotID), zap.Int("media", after))
	return &Result{Document: next, Index: ix, SlotID: slotID}, nil
}

func replaceElement(old, repl *etree.Element) error {
	parent := old.Parent()
	if parent == nil {
		return fmt.Errorf("cannot replace the document root")
	}
	parent.InsertChildAt(old.Index(), repl)
	parent.RemoveChild(old)
	return nil
}

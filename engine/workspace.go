package engine

import (
	"sync"

	"pagefill/markup"
)

// Workspace holds the latest committed document of one page and serializes
// mutations against it. Engine calls are pure, so without this two quick
// drops could both mutate the same stale snapshot and the second commit
// would silently drop the first.
type Workspace struct {
	mu  sync.Mutex
	doc *markup.Document
}

func NewWorkspace(doc *markup.Document) *Workspace {
	return &Workspace{doc: doc}
}

// Current returns the latest committed document.
func (w *Workspace) Current() *markup.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

// Apply runs one read-modify-write cycle: fn receives the latest committed
// document and returns its replacement. A returned error, or a nil
// replacement, keeps the previous document committed.
func (w *Workspace) Apply(fn func(*markup.Document) (*markup.Document, error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := fn(w.doc)
	if err != nil {
		return err
	}
	if next != nil {
		w.doc = next
	}
	return nil
}

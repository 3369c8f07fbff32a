package slots

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"pagefill/markup"
)

const tieredPage = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<body>
<div id="page1_div0" class="image-placeholder"></div>
<div id="page1_div1"></div>
<div id="labeled" title="drop image here"></div>
<div id="page1_div2">not empty, should be skipped</div>
<img id="page1_img3" src="images/photo.jpg" alt=""/>
<div id="other">plain content</div>
</body>
</html>`

func tieredGeometry() Geometry {
	return Geometry{
		"page1_div0": {Left: 10, Top: 10, Width: 100, Height: 50},
		"page1_div1": {Left: 130, Top: 12, Width: 100, Height: 50},
		"labeled":    {Left: 10, Top: 120, Width: 100, Height: 50},
		"page1_img3": {Left: 130, Top: 120, Width: 100, Height: 50},
	}
}

func TestBuildIndexEvidenceTiers(t *testing.T) {
	log := zaptest.NewLogger(t)
	doc := markup.Parse(tieredPage, log)
	ix := BuildIndex(doc, tieredGeometry(), Options{}, log)

	if ix.Len() != 4 {
		t.Fatalf("expected 4 slots, got %d", ix.Len())
	}
	for _, want := range []string{"page1_div0", "page1_div1", "labeled", "page1_img3"} {
		if _, ok := ix.Get(want); !ok {
			t.Fatalf("slot %q not discovered", want)
		}
	}
	if s, _ := ix.Get("page1_div2"); s != nil {
		t.Fatalf("non-empty element must not become a slot")
	}
	if s, _ := ix.Get("page1_img3"); !s.Filled() || s.Kind != KindMedia {
		t.Fatalf("media element must be a filled slot, got %v/%v", s.State, s.Kind)
	}
	if s, _ := ix.Get("labeled"); s.Label != "drop image here" {
		t.Fatalf("label not carried over: %q", s.Label)
	}
}

func TestBuildIndexRowMajorOrder(t *testing.T) {
	log := zaptest.NewLogger(t)
	doc := markup.Parse(tieredPage, log)
	ix := BuildIndex(doc, tieredGeometry(), Options{}, log)

	// page1_div0 and page1_div1 share a row within tolerance, labeled and
	// page1_img3 form the second row
	want := []string{"page1_div0", "page1_div1", "labeled", "page1_img3"}
	for i, id := range want {
		if ix.Slots[i].ID != id {
			t.Fatalf("order mismatch at %d: got %q, want %q", i, ix.Slots[i].ID, id)
		}
		if ix.Slots[i].Order != i+1 {
			t.Fatalf("order rank mismatch for %q: %d", id, ix.Slots[i].Order)
		}
	}
}

func TestBuildIndexUnmeasuredSlotsSortLast(t *testing.T) {
	log := zaptest.NewLogger(t)
	doc := markup.Parse(tieredPage, log)
	geom := Geometry{
		"page1_div1": {Left: 0, Top: 0, Width: 10, Height: 10},
	}
	ix := BuildIndex(doc, geom, Options{}, log)

	if ix.Slots[0].ID != "page1_div1" {
		t.Fatalf("measured slot must sort first, got %q", ix.Slots[0].ID)
	}
	// remaining slots keep first-seen order
	rest := []string{"page1_div0", "page1_img3"}
	for i, id := range rest {
		if ix.Slots[i+1].ID != id {
			t.Fatalf("first-seen order violated at %d: got %q, want %q", i+1, ix.Slots[i+1].ID, id)
		}
	}
}

func TestBuildIndexPromotionIsIdempotent(t *testing.T) {
	log := zaptest.NewLogger(t)
	doc := markup.Parse(tieredPage, log)
	geom := tieredGeometry()

	first := BuildIndex(doc, geom, Options{}, log)

	// first run promoted lower-tier finds in place
	el := markup.FindByID(doc.Tree, "page1_div1")
	if !HasMarker(el.SelectAttrValue("class", "")) {
		t.Fatalf("naming-tier slot not promoted to canonical marker")
	}
	el = markup.FindByID(doc.Tree, "labeled")
	if !HasMarker(el.SelectAttrValue("class", "")) {
		t.Fatalf("label-tier slot not promoted to canonical marker")
	}

	second := BuildIndex(doc, geom, Options{}, log)
	if !first.StructurallyEqual(second) {
		t.Fatalf("repeated index runs must yield identical ordered output")
	}
	third := BuildIndex(doc, geom, Options{}, log)
	if !second.StructurallyEqual(third) {
		t.Fatalf("promotion is not idempotent")
	}
}

func TestBuildIndexDuplicateIDFirstSeenWins(t *testing.T) {
	log := zaptest.NewLogger(t)
	page := `<html><body>
<div id="page1_div0" class="image-placeholder" title="first"></div>
<div id="page1_div0" class="image-placeholder" title="second"></div>
</body></html>`
	doc := markup.Parse(page, log)
	ix := BuildIndex(doc, nil, Options{}, log)

	if ix.Len() != 1 {
		t.Fatalf("duplicate ids must collapse, got %d slots", ix.Len())
	}
	if s, _ := ix.Get("page1_div0"); s.Label != "first" {
		t.Fatalf("first-seen precedence violated: %q", s.Label)
	}
}

func TestBuildIndexMediaWinsOverPlaceholder(t *testing.T) {
	log := zaptest.NewLogger(t)
	page := `<html><body>
<div id="page1_img0" class="image-placeholder"></div>
<img id="page1_img0" src="images/a.png" alt=""/>
</body></html>`
	doc := markup.Parse(page, log)
	ix := BuildIndex(doc, nil, Options{}, log)

	if ix.Len() != 1 {
		t.Fatalf("expected single merged slot, got %d", ix.Len())
	}
	if s, _ := ix.Get("page1_img0"); !s.Filled() {
		t.Fatalf("media must win over placeholder on id collision")
	}
}

func TestBuildIndexMalformedFallback(t *testing.T) {
	log := zaptest.NewLogger(t)
	// not well-formed: unclosed div, stray body close
	broken := `<html><body><p>text<div id="page3_img1" title="drop image here"></body>`
	doc := markup.Parse(broken, log)
	if doc.Parsed() {
		t.Fatalf("fixture must not parse")
	}
	geom := Geometry{"page3_img1": {Left: 0, Top: 0, Width: 50, Height: 50}}
	ix := BuildIndex(doc, geom, Options{}, log)

	if ix.Len() != 1 {
		t.Fatalf("expected one recovered slot, got %d", ix.Len())
	}
	if s, ok := ix.Get("page3_img1"); !ok || s.Filled() {
		t.Fatalf("slot page3_img1 not recovered as empty placeholder")
	}
}

func TestHasMarkerSpellings(t *testing.T) {
	for class, want := range map[string]bool{
		"image-placeholder":       true,
		"img-placeholder":         true,
		"x image-placeholder y":   true,
		"image-placeholder-extra": false,
		"imageplaceholder":        false,
		"":                        false,
	} {
		if got := HasMarker(class); got != want {
			t.Fatalf("HasMarker(%q) = %v, want %v", class, got, want)
		}
	}
}

func TestIDMatchesConvention(t *testing.T) {
	for id, want := range map[string]bool{
		"page1_div0":   true,
		"page12_img34": true,
		"page1_span0":  false,
		"xpage1_div0":  false,
		"page1_div0x":  false,
		"page_div1":    false,
	} {
		if got := IDMatchesConvention(id); got != want {
			t.Fatalf("IDMatchesConvention(%q) = %v, want %v", id, got, want)
		}
	}
}

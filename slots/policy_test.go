package slots

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"pagefill/markup"
)

const policyPage = `<html><body>
<div id="page1_div0" class="image-placeholder"></div>
<div id="page1_div1" class="image-placeholder"></div>
<div id="page1_div2" class="image-placeholder"></div>
</body></html>`

func policyIndex(t *testing.T) *Index {
	t.Helper()
	log := zaptest.NewLogger(t)
	doc := markup.Parse(policyPage, log)
	geom := Geometry{
		"page1_div0": {Left: 0, Top: 0, Width: 50, Height: 50},
		"page1_div1": {Left: 100, Top: 0, Width: 50, Height: 50},
		"page1_div2": {Left: 0, Top: 100, Width: 50, Height: 50},
	}
	return BuildIndex(doc, geom, Options{}, log)
}

func TestSequentialSingleEligible(t *testing.T) {
	ix := policyIndex(t)

	eligible := Eligible(ix, ModeSequential)
	if len(eligible) != 1 || eligible[0].ID != "page1_div0" {
		t.Fatalf("sequential mode must permit exactly the first empty slot, got %v", eligible)
	}
}

func TestSequentialExclusivity(t *testing.T) {
	ix := policyIndex(t)

	for _, target := range []string{"page1_div1", "page1_div2"} {
		err := CheckTarget(ix, ModeSequential, target)
		var seq *SequencingError
		if !errors.As(err, &seq) {
			t.Fatalf("drop on %q must fail sequencing, got %v", target, err)
		}
		if seq.EligibleID != "page1_div0" || seq.EligiblePos != 1 {
			t.Fatalf("sequencing error must identify the eligible slot, got %+v", seq)
		}
	}
	if err := CheckTarget(ix, ModeSequential, "page1_div0"); err != nil {
		t.Fatalf("eligible slot rejected: %v", err)
	}
}

func TestSequentialSelfHeals(t *testing.T) {
	ix := policyIndex(t)

	// the document was edited through another path: first slot now filled
	s, _ := ix.Get("page1_div0")
	s.State = StateFilled

	eligible := Eligible(ix, ModeSequential)
	if len(eligible) != 1 || eligible[0].ID != "page1_div1" {
		t.Fatalf("eligibility must be recomputed from current state, got %v", eligible)
	}
}

func TestFreeModeAllowsAnyEmpty(t *testing.T) {
	ix := policyIndex(t)

	if got := len(Eligible(ix, ModeFree)); got != 3 {
		t.Fatalf("free mode must permit all empty slots, got %d", got)
	}
	if err := CheckTarget(ix, ModeFree, "page1_div2"); err != nil {
		t.Fatalf("free mode rejected a valid target: %v", err)
	}
}

func TestRedirectPicksEligible(t *testing.T) {
	ix := policyIndex(t)

	s, err := Redirect(ix, ModeSequential)
	if err != nil {
		t.Fatalf("redirect: %v", err)
	}
	if s.ID != "page1_div0" {
		t.Fatalf("untargeted drop must go to the eligible slot, got %q", s.ID)
	}
}

func TestExhaustedPage(t *testing.T) {
	ix := policyIndex(t)
	for _, s := range ix.Slots {
		s.State = StateFilled
	}

	if err := CheckTarget(ix, ModeSequential, "page1_div0"); !errors.Is(err, ErrNoEmptySlots) {
		t.Fatalf("expected ErrNoEmptySlots, got %v", err)
	}
	if _, err := Redirect(ix, ModeFree); !errors.Is(err, ErrNoEmptySlots) {
		t.Fatalf("expected ErrNoEmptySlots from redirect, got %v", err)
	}
}

func TestParseFillMode(t *testing.T) {
	if m, err := ParseFillMode(""); err != nil || m != ModeSequential {
		t.Fatalf("default mode must be sequential")
	}
	if m, err := ParseFillMode("free"); err != nil || m != ModeFree {
		t.Fatalf("free mode not recognized")
	}
	if _, err := ParseFillMode("bogus"); err == nil {
		t.Fatalf("bogus mode must be rejected")
	}
}

package css_test

import (
	"testing"

	"pagefill/css"
)

func TestParseStyleBasics(t *testing.T) {
	st := css.ParseStyle("width: 120px; height:80px; position:absolute")

	if v, ok := st.Get("width"); !ok || v != "120px" {
		t.Fatalf("width mismatch: %q %v", v, ok)
	}
	if v, ok := st.Get("height"); !ok || v != "80px" {
		t.Fatalf("height mismatch: %q %v", v, ok)
	}
	if !st.Positioned() {
		t.Fatalf("expected freely positioned element")
	}
}

func TestParseStyleLastDeclarationWins(t *testing.T) {
	st := css.ParseStyle("width: 10px; width: 20px")
	if v, _ := st.Get("width"); v != "20px" {
		t.Fatalf("expected override to win, got %q", v)
	}
}

func TestSizingSubsetAndRender(t *testing.T) {
	st := css.ParseStyle("color: red; width: 120px; border: 1px solid black; height: 80px")
	sizing := st.Sizing()
	if got := sizing.String(); got != "width: 120px; height: 80px" {
		t.Fatalf("sizing render mismatch: %q", got)
	}
	if _, ok := sizing.Get("color"); ok {
		t.Fatalf("sizing subset must not keep color")
	}
}

func TestPositionedKeywords(t *testing.T) {
	for input, want := range map[string]bool{
		"position: absolute": true,
		"position: fixed":    true,
		"position: relative": false,
		"position: static":   false,
		"width: 10px":        false,
		"position: relative; position: absolute": true,
	} {
		if got := css.ParseStyle(input).Positioned(); got != want {
			t.Fatalf("Positioned(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestSetAndMerge(t *testing.T) {
	var st css.Style
	st.Set("width", "50px")
	st.Set("width", "70px")
	if got := st.String(); got != "width: 70px" {
		t.Fatalf("set/replace mismatch: %q", got)
	}

	merged := css.ParseStyle("height: 10px").Merge(st)
	if got := merged.String(); got != "height: 10px; width: 70px" {
		t.Fatalf("merge mismatch: %q", got)
	}
}

func TestParseStyleGarbage(t *testing.T) {
	st := css.ParseStyle("%%% not css at all ;;;")
	if !st.Empty() && st.String() == "" {
		t.Fatalf("inconsistent empty state")
	}
}

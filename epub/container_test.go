package epub

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

const pageTwo = `<html><body><div id="page2_div0" class="image-placeholder"></div></body></html>`

func buildContainer(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("mimetype: %v", err)
	}
	if _, err := io.WriteString(w, "application/epub+zip"); err != nil {
		t.Fatalf("mimetype: %v", err)
	}
	entries := []struct{ name, body string }{
		{"META-INF/container.xml", `<container/>`},
		{"OEBPS/page10.xhtml", `<html><body><p>ten</p></body></html>`},
		{"OEBPS/page2.xhtml", pageTwo},
		{"OEBPS/style.css", `body {}`},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("entry %s: %v", e.name, err)
		}
		if _, err := io.WriteString(w, e.body); err != nil {
			t.Fatalf("entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return p
}

func TestListPagesNaturalOrder(t *testing.T) {
	container := buildContainer(t)

	pages, err := ListPages(container)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"OEBPS/page2.xhtml", "OEBPS/page10.xhtml"}
	if len(pages) != len(want) {
		t.Fatalf("got %v, want %v", pages, want)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Fatalf("got %v, want %v", pages, want)
		}
	}
}

func TestReadPage(t *testing.T) {
	container := buildContainer(t)

	text, err := ReadPage(container, "OEBPS/page2.xhtml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if text != pageTwo {
		t.Fatalf("unexpected page text:\n%s", text)
	}
	if _, err := ReadPage(container, "OEBPS/missing.xhtml"); err == nil {
		t.Fatalf("expected error for missing page")
	}
}

func TestWritePageReplacesOnlyTarget(t *testing.T) {
	container := buildContainer(t)
	log := zaptest.NewLogger(t)

	mutated := `<html><body><img id="page2_div0" class="image-placeholder" src="images/cover.png"/></body></html>`
	if err := WritePage(container, "OEBPS/page2.xhtml", mutated, log); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := ReadPage(container, "OEBPS/page2.xhtml")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if text != mutated {
		t.Fatalf("replacement not written:\n%s", text)
	}

	zr, err := zip.OpenReader(container)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 5 {
		t.Fatalf("entry count changed: %d", len(zr.File))
	}
	first := zr.File[0]
	if first.Name != "mimetype" || first.Method != zip.Store {
		t.Fatalf("mimetype entry not first and stored: %s", first.Name)
	}
	other, err := ReadPage(container, "OEBPS/page10.xhtml")
	if err != nil || other != `<html><body><p>ten</p></body></html>` {
		t.Fatalf("untouched page changed: %q %v", other, err)
	}

	if err := WritePage(container, "OEBPS/missing.xhtml", "x", log); err == nil {
		t.Fatalf("expected error for missing page")
	}
}

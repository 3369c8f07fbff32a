package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewReference(t *testing.T) {
	ref, err := NewReference("My Photo (1).PNG")
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	if ref.Path != "images/my-photo-1.png" {
		t.Fatalf("resolved path mismatch: %q", ref.Path)
	}
	if ref.FileName != "my-photo-1.png" {
		t.Fatalf("file name mismatch: %q", ref.FileName)
	}
}

func TestNewReferenceRejectsNonBareNames(t *testing.T) {
	for _, name := range []string{"", "  ", "a/b.png", `a\b.png`, "/abs.png", "../up.png", "images/x.png"} {
		if _, err := NewReference(name); err == nil {
			t.Fatalf("expected rejection of %q", name)
		}
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	if ext, err := Detect(pngBytes(t, 4, 4)); err != nil || ext != "png" {
		t.Fatalf("png not detected: %q %v", ext, err)
	}
	if _, err := Detect([]byte("<svg xmlns='http://www.w3.org/2000/svg'/>")); err == nil {
		t.Fatalf("non-raster payload must be rejected")
	}
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	log := zaptest.NewLogger(t)
	data := pngBytes(t, 40, 20)
	out, w, h, err := Prepare(data, 100, log)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !bytes.Equal(out, data) || w != 40 || h != 20 {
		t.Fatalf("small image must pass through unchanged: %dx%d", w, h)
	}
}

func TestPrepareDownscales(t *testing.T) {
	log := zaptest.NewLogger(t)
	out, w, h, err := Prepare(pngBytes(t, 200, 100), 100, log)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if w != 100 || h != 50 {
		t.Fatalf("resize mismatch: %dx%d", w, h)
	}
	if _, _, err := image.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("resized output not decodable: %v", err)
	}
}

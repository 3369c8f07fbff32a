// Package media handles references to raster images dropped into a page.
// The engine only ever reads and writes the relative reference form; turning
// it into a fetchable URL (and back) is the hosting application's job.
package media

import (
	"bytes"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dir is the directory component of every media reference written into a
// page.
const Dir = "images"

// Reference is a media file plus the resolved relative path the engine
// writes into the document.
type Reference struct {
	FileName string
	Path     string
}

// NewReference builds a reference from a bare file name, sanitizing the base
// name for safe use inside the container. Anything that is not a bare name -
// absolute paths, directories, an already-resolved form - is rejected so
// mixed forms never reach the document text.
func NewReference(fileName string) (Reference, error) {
	if strings.TrimSpace(fileName) == "" {
		return Reference{}, fmt.Errorf("empty media file name")
	}
	if strings.ContainsAny(fileName, `/\`) || fileName != path.Base(fileName) {
		return Reference{}, fmt.Errorf("media file name %q must be a bare name", fileName)
	}

	ext := strings.ToLower(path.Ext(fileName))
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	if s := slug.Make(base); s != "" {
		base = s
	}
	name := base + ext
	return Reference{FileName: name, Path: path.Join(Dir, name)}, nil
}

// acceptedTypes are the raster formats the editor inserts.
var acceptedTypes = map[string]struct{}{
	"jpg":  {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"tif":  {},
	"bmp":  {},
}

// Detect sniffs dropped file content and returns its canonical extension.
// Non-image payloads and vector formats are rejected.
func Detect(data []byte) (string, error) {
	t, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("detect media type: %w", err)
	}
	if _, ok := acceptedTypes[t.Extension]; !ok {
		return "", fmt.Errorf("unsupported media type %q", t.Extension)
	}
	return t.Extension, nil
}

// Prepare probes dropped image content for its pixel dimensions and, when
// maxWidth is set and exceeded, downscales it preserving aspect ratio.
// Formats without an encoder pass through untouched at original size.
func Prepare(data []byte, maxWidth int, log *zap.Logger) ([]byte, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if maxWidth <= 0 || cfg.Width <= maxWidth {
		return data, cfg.Width, cfg.Height, nil
	}

	encFormat, ok := encodableFormat(format)
	if !ok {
		log.Warn("Image exceeds maximum width but format has no encoder, keeping original",
			zap.String("format", format), zap.Int("width", cfg.Width), zap.Int("max", maxWidth))
		return data, cfg.Width, cfg.Height, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, encFormat); err != nil {
		return nil, 0, 0, fmt.Errorf("encode resized image: %w", err)
	}
	bounds := resized.Bounds()
	log.Debug("Downscaled dropped image",
		zap.Int("from", cfg.Width), zap.Int("to", bounds.Dx()))
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

func encodableFormat(format string) (imaging.Format, bool) {
	switch format {
	case "jpeg":
		return imaging.JPEG, true
	case "png":
		return imaging.PNG, true
	case "gif":
		return imaging.GIF, true
	case "tiff":
		return imaging.TIFF, true
	case "bmp":
		return imaging.BMP, true
	default:
		return 0, false
	}
}

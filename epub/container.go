// Package epub gives the engine access to pages living inside an EPUB
// container. Reading pulls one content document out of the archive; writing
// replaces exactly that entry and copies everything else through untouched,
// keeping the stored mimetype entry first so strict readers stay happy.
package epub

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

func isPage(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	}
	return false
}

// ListPages returns the container's content documents in natural order, so
// page2 sorts before page10 regardless of how the converter zero-padded
// names.
func ListPages(container string) ([]string, error) {
	r, err := fixzip.OpenReader(container)
	if err != nil {
		return nil, fmt.Errorf("unable to read container (%s): %w", container, err)
	}
	defer r.Close()

	var pages []string
	for _, file := range r.File {
		if isPage(file.Name) {
			pages = append(pages, file.Name)
		}
	}
	sort.SliceStable(pages, func(i, j int) bool { return natural.Less(pages[i], pages[j]) })
	return pages, nil
}

// ReadPage returns the text of one content document.
func ReadPage(container, name string) (string, error) {
	r, err := fixzip.OpenReader(container)
	if err != nil {
		return "", fmt.Errorf("unable to read container (%s): %w", container, err)
	}
	defer r.Close()

	for _, file := range r.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("unable to open page (%s): %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("unable to read page (%s): %w", name, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no page %q in container %s", name, container)
}

// WritePage replaces one content document and leaves every other entry
// byte-identical. The archive is rebuilt next to the original and swapped in
// with a rename, so a failure half way never corrupts the container. Data
// descriptor flags are stripped from copied entries, some reading systems
// reject them.
func WritePage(container, name, text string, log *zap.Logger) error {
	r, err := fixzip.OpenReader(container)
	if err != nil {
		return fmt.Errorf("unable to read container (%s): %w", container, err)
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(container), ".page-*.epub")
	if err != nil {
		return fmt.Errorf("unable to create work file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := fixzip.NewWriter(tmp)
	replaced := false
	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor

		if file.Name == name {
			out, err := w.CreateHeader(&fixzip.FileHeader{Name: name, Method: fixzip.Deflate})
			if err != nil {
				return fmt.Errorf("unable to replace page (%s): %w", name, err)
			}
			if _, err := io.WriteString(out, text); err != nil {
				return fmt.Errorf("unable to write page (%s): %w", name, err)
			}
			replaced = true
			continue
		}
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to copy entry (%s): %w", file.Name, err)
		}
	}
	if !replaced {
		return fmt.Errorf("no page %q in container %s", name, container)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finalize container: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize work file: %w", err)
	}
	if err := os.Rename(tmp.Name(), container); err != nil {
		return fmt.Errorf("unable to replace container (%s): %w", container, err)
	}
	log.Debug("Replaced page in container", zap.String("container", container), zap.String("page", name))
	return nil
}

// Package run implements the command line actions.
package run

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"pagefill/config"
	"pagefill/engine"
	"pagefill/epub"
	"pagefill/markup"
	"pagefill/media"
	"pagefill/slots"
	"pagefill/state"
)

// page is where a document lives: a plain file or an entry inside an EPUB
// container.
type page struct {
	name      string
	container string
}

func pageFromCommand(cmd *cli.Command) (*page, error) {
	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return nil, fmt.Errorf("no page specified")
	}
	return &page{name: name, container: cmd.String("epub")}, nil
}

func (p *page) load() (string, error) {
	if len(p.container) > 0 {
		return epub.ReadPage(p.container, p.name)
	}
	data, err := os.ReadFile(p.name)
	if err != nil {
		return "", fmt.Errorf("unable to read page (%s): %w", p.name, err)
	}
	return string(data), nil
}

func (p *page) save(text string, log *zap.Logger) error {
	if len(p.container) > 0 {
		return epub.WritePage(p.container, p.name, text, log)
	}
	if err := os.WriteFile(p.name, []byte(text), 0644); err != nil {
		return fmt.Errorf("unable to write page (%s): %w", p.name, err)
	}
	return nil
}

type geometryRect struct {
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// loadGeometry reads measured slot bounds from a YAML file, id to rect. An
// empty path means no measurements are available, which the engine accepts.
func loadGeometry(path string) (slots.Geometry, error) {
	if len(path) == 0 {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read geometry file (%s): %w", path, err)
	}
	var raw map[string]geometryRect
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unable to decode geometry file (%s): %w", path, err)
	}
	geom := make(slots.Geometry, len(raw))
	for id, r := range raw {
		geom[id] = slots.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
	}
	return geom, nil
}

func newEngine(env *state.LocalEnv) (*engine.Engine, error) {
	mode, err := slots.ParseFillMode(env.Cfg.Engine.FillMode)
	if err != nil {
		return nil, err
	}
	e := engine.New(mode, env.Log)
	e.Slots.RowTolerance = env.Cfg.Engine.RowTolerance
	e.Resolver.FlowedTolerance = env.Cfg.Engine.FlowedTolerance
	e.Resolver.PositionedTolerance = env.Cfg.Engine.PositionedTolerance
	e.Sessions.TTL = time.Duration(env.Cfg.Engine.DragTTLSeconds) * time.Second
	return e, nil
}

// Pages lists the content documents of a container in reading order.
func Pages(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	container := cmd.Args().Get(0)
	if len(container) == 0 {
		return fmt.Errorf("no container specified")
	}
	names, err := epub.ListPages(container)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(os.Stdout, name)
	}
	env.Log.Debug("Listed container pages", zap.String("container", container), zap.Int("count", len(names)))
	return nil
}

// Scan lists the slots of a page.
func Scan(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	p, err := pageFromCommand(cmd)
	if err != nil {
		return err
	}
	geom, err := loadGeometry(cmd.String("geometry"))
	if err != nil {
		return err
	}
	e, err := newEngine(env)
	if err != nil {
		return err
	}

	text, err := p.load()
	if err != nil {
		return err
	}
	doc := markup.Parse(text, env.Log)
	ix := e.Index(doc, geom)

	for _, s := range ix.Slots {
		bounds := "unmeasured"
		if s.Bounds != nil {
			bounds = fmt.Sprintf("%.0f,%.0f %.0fx%.0f", s.Bounds.Left, s.Bounds.Top, s.Bounds.Width, s.Bounds.Height)
		}
		fmt.Fprintf(os.Stdout, "%3d %-24s %-11s %-6s %s\n", s.Order, s.ID, s.Kind, s.State, bounds)
	}
	env.Log.Info("Scanned page", zap.String("page", p.name), zap.Int("slots", ix.Len()))
	return nil
}

// Fill inserts a media reference into a slot. Without an explicit slot the
// fill policy picks the target. For plain pages the image file itself is
// staged next to the page; containers only get the reference.
func Fill(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	env.Overwrite = cmd.Bool("overwrite")

	p, err := pageFromCommand(cmd)
	if err != nil {
		return err
	}
	imagePath := cmd.Args().Get(1)
	if len(imagePath) == 0 {
		return fmt.Errorf("no image specified")
	}
	geom, err := loadGeometry(cmd.String("geometry"))
	if err != nil {
		return err
	}
	e, err := newEngine(env)
	if err != nil {
		return err
	}

	text, err := p.load()
	if err != nil {
		return err
	}
	ref, err := media.NewReference(config.CleanFileName(filepath.Base(imagePath)))
	if err != nil {
		return err
	}

	ws := engine.NewWorkspace(markup.Parse(text, env.Log))
	var res *engine.Result
	err = ws.Apply(func(d *markup.Document) (*markup.Document, error) {
		if slot := cmd.String("slot"); len(slot) > 0 {
			res, err = e.Fill(d, geom, slot, ref)
		} else {
			res, err = e.Insert(d, geom, ref)
		}
		if err != nil {
			return nil, err
		}
		return res.Document, nil
	})
	if err != nil {
		return err
	}

	if len(p.container) == 0 {
		if err := stageMedia(imagePath, filepath.Dir(p.name), ref, env); err != nil {
			return err
		}
	} else {
		env.Log.Warn("Media is not copied into containers, only the reference is written",
			zap.String("image", imagePath))
	}
	if err := p.save(ws.Current().Text, env.Log); err != nil {
		return err
	}
	env.Log.Info("Filled slot", zap.String("page", p.name), zap.String("slot", res.SlotID), zap.String("media", ref.Path))
	return nil
}

// Clear removes media from a slot, restoring the placeholder.
func Clear(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	p, err := pageFromCommand(cmd)
	if err != nil {
		return err
	}
	slot := cmd.String("slot")
	if len(slot) == 0 {
		return fmt.Errorf("no slot specified")
	}
	geom, err := loadGeometry(cmd.String("geometry"))
	if err != nil {
		return err
	}
	e, err := newEngine(env)
	if err != nil {
		return err
	}

	text, err := p.load()
	if err != nil {
		return err
	}
	ws := engine.NewWorkspace(markup.Parse(text, env.Log))
	err = ws.Apply(func(d *markup.Document) (*markup.Document, error) {
		res, err := e.Clear(d, geom, slot)
		if err != nil {
			return nil, err
		}
		return res.Document, nil
	})
	if err != nil {
		return err
	}
	if err := p.save(ws.Current().Text, env.Log); err != nil {
		return err
	}
	env.Log.Info("Cleared slot", zap.String("page", p.name), zap.String("slot", slot))
	return nil
}

// stageMedia validates the dropped image, scales it down when configured to
// and writes it under the page's images directory.
func stageMedia(src, pageDir string, ref media.Reference, env *state.LocalEnv) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read image (%s): %w", src, err)
	}
	if _, err := media.Detect(data); err != nil {
		return err
	}
	out, w, h, err := media.Prepare(data, env.Cfg.Media.MaxWidth, env.Log)
	if err != nil {
		return err
	}

	dst := filepath.Join(pageDir, filepath.FromSlash(ref.Path))
	if _, err := os.Stat(dst); err == nil && !env.Overwrite {
		return fmt.Errorf("media file already exists (%s), use overwrite to replace it", dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create media directory: %w", err)
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("unable to write media file (%s): %w", dst, err)
	}
	env.Log.Debug("Staged media file", zap.String("file", dst), zap.Int("width", w), zap.Int("height", h))
	return nil
}

package run

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"pagefill/config"
	"pagefill/slots"
	"pagefill/state"
)

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}
	return &state.LocalEnv{Cfg: cfg, Log: zaptest.NewLogger(t)}
}

func TestNewEngineFromConfig(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Engine.RowTolerance = 20
	env.Cfg.Engine.FlowedTolerance = 100
	env.Cfg.Engine.PositionedTolerance = 300
	env.Cfg.Engine.DragTTLSeconds = 5
	env.Cfg.Engine.FillMode = "free"

	e, err := newEngine(env)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	if e.Mode != slots.ModeFree {
		t.Errorf("fill mode not applied, got %v", e.Mode)
	}
	if e.Slots.RowTolerance != 20 {
		t.Errorf("row tolerance not applied, got %v", e.Slots.RowTolerance)
	}
	if e.Resolver.FlowedTolerance != 100 || e.Resolver.PositionedTolerance != 300 {
		t.Errorf("proximity tolerances not applied, got %v/%v",
			e.Resolver.FlowedTolerance, e.Resolver.PositionedTolerance)
	}
	if e.Sessions.TTL != 5*time.Second {
		t.Errorf("drag TTL not applied, got %v", e.Sessions.TTL)
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e, err := newEngine(testEnv(t))
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	if e.Mode != slots.ModeSequential {
		t.Errorf("default fill mode must be sequential, got %v", e.Mode)
	}
	if e.Sessions.TTL != 30*time.Second {
		t.Errorf("default drag TTL must be 30s, got %v", e.Sessions.TTL)
	}
}

func TestLoadGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	content := `page1_div0:
  left: 10
  top: 20
  width: 100
  height: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	geom, err := loadGeometry(path)
	if err != nil {
		t.Fatalf("loadGeometry: %v", err)
	}
	r, ok := geom["page1_div0"]
	if !ok || r.Left != 10 || r.Top != 20 || r.Width != 100 || r.Height != 50 {
		t.Fatalf("unexpected rect %+v", r)
	}

	if geom, err := loadGeometry(""); err != nil || geom != nil {
		t.Fatalf("empty path must mean no geometry, got %v %v", geom, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("page1_div0:\n  lef: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadGeometry(bad); err == nil {
		t.Fatalf("unknown geometry field must be rejected")
	}
}

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/frudas24/padrelay/internal/config"
	"github.com/frudas24/padrelay/internal/layout"
	"github.com/frudas24/padrelay/internal/session"
	"github.com/frudas24/padrelay/internal/testutil"
)

// newTestApp builds an app against temp data paths without starting it.
func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		ListenAddr:      "127.0.0.1:0",
		StreamAddr:      "127.0.0.1:0",
		DataDir:         dir,
		LayoutPath:      filepath.Join(dir, "layout.json"),
		KeymapPath:      filepath.Join(dir, "keymap.yaml"),
		FFmpegPath:      "ffmpeg",
		FPS:             30,
		MJPEGQuality:    60,
		AnalogThreshold: 0.3,
	}
	a, err := New(cfg, &testutil.FakeInjector{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

// TestHandleState_ReturnsDefaults verifies the state endpoint reflects the
// idle session.
func TestHandleState_ReturnsDefaults(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	a.handleState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Connected || resp.Streaming {
		t.Fatalf("expected idle session: %+v", resp)
	}
	if len(resp.Layout) != len(layout.ControlIDs()) {
		t.Fatalf("expected default layout, got %d controls", len(resp.Layout))
	}
}

// TestHandleState_ReflectsDevice verifies device info shows up after the
// handheld reports it.
func TestHandleState_ReflectsDevice(t *testing.T) {
	a := newTestApp(t)
	a.session.SetDevice(session.DeviceInfo{Width: 960, Height: 544, Density: 1.5})

	rec := httptest.NewRecorder()
	a.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Device.Width != 960 || resp.Device.Height != 544 {
		t.Fatalf("unexpected device: %+v", resp.Device)
	}
}

// TestRegisterRoutes_ServesEditorEndpoints verifies route wiring.
func TestRegisterRoutes_ServesEditorEndpoints(t *testing.T) {
	a := newTestApp(t)
	mux := http.NewServeMux()
	a.RegisterRoutes(mux, "")

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state endpoint returned %d", resp.StatusCode)
	}

	fav, err := http.Get(srv.URL + "/favicon.ico")
	if err != nil {
		t.Fatalf("get favicon: %v", err)
	}
	fav.Body.Close()
	if fav.StatusCode != http.StatusNoContent {
		t.Fatalf("favicon returned %d", fav.StatusCode)
	}
}

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/frudas24/padrelay/internal/protocol"
	"github.com/frudas24/padrelay/internal/web"
)

// RegisterRoutes wires the editor API and static handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	if staticDir == "" {
		staticDir = filepath.Join("internal", "web", "static")
	}

	mux.HandleFunc("/api/state", a.handleState)
	mux.Handle("/ws/editor", a.Editor())
	mux.HandleFunc("/favicon.ico", handleFavicon)
	mux.Handle("/", staticFileServer(staticDir))
}

type stateResponse struct {
	Connected  bool                          `json:"connected"`
	RemoteAddr string                        `json:"remoteAddr,omitempty"`
	Device     deviceResponse                `json:"device"`
	Layout     map[string]protocol.Placement `json:"layout"`
	Streaming  bool                          `json:"streaming"`
	StreamMode string                        `json:"streamMode,omitempty"`
	StreamURL  string                        `json:"streamUrl,omitempty"`
}

type deviceResponse struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Density float64 `json:"density"`
}

// handleState returns current session state for the editor UI.
func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := a.session.Snapshot()
	resp := stateResponse{
		Connected:  snap.Connected,
		RemoteAddr: snap.RemoteAddr,
		Device: deviceResponse{
			Width:   snap.Device.Width,
			Height:  snap.Device.Height,
			Density: snap.Device.Density,
		},
		Layout:     map[string]protocol.Placement(snap.Layout),
		Streaming:  snap.Streaming,
		StreamMode: snap.StreamMode,
		StreamURL:  snap.StreamURL,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// staticFileServer returns a handler for static assets, preferring disk then embed.
func staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	embedded, err := web.StaticFS()
	if err != nil {
		log.Printf("static assets unavailable: %v", err)
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

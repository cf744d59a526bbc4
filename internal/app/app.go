// Package app wires the control server, stream relay, and editor bridge
// together.
package app

import (
	"errors"
	"log"

	"github.com/frudas24/padrelay/internal/config"
	"github.com/frudas24/padrelay/internal/editor"
	"github.com/frudas24/padrelay/internal/ffmpeg"
	"github.com/frudas24/padrelay/internal/input"
	"github.com/frudas24/padrelay/internal/layout"
	"github.com/frudas24/padrelay/internal/protocol"
	"github.com/frudas24/padrelay/internal/relay"
	"github.com/frudas24/padrelay/internal/server"
	"github.com/frudas24/padrelay/internal/session"
	"github.com/frudas24/padrelay/internal/webrtc"
)

// App coordinates the TCP control server, the MJPEG relay, the WebRTC
// streamer, and the layout editor endpoint.
type App struct {
	cfg     config.Config
	session *session.Session
	server  *server.Server
	relay   *relay.Relay
	rtc     *webrtc.Streamer
	editor  *editor.Bridge
	keymap  input.Keymap
}

// New creates a new application with its dependencies wired.
func New(cfg config.Config, injector input.Injector) (*App, error) {
	if injector == nil {
		return nil, errors.New("injector is required")
	}

	keymap, err := input.LoadKeymap(cfg.KeymapPath)
	if err != nil {
		return nil, err
	}

	l, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return nil, err
	}
	sess := session.New(l)

	captureOpts := ffmpeg.Options{
		FFmpegPath:    cfg.FFmpegPath,
		FPS:           cfg.FPS,
		CaptureW:      cfg.CaptureW,
		CaptureH:      cfg.CaptureH,
		Display:       cfg.Display,
		MonitorIndex:  cfg.MonitorIndex,
		CaptureDriver: cfg.CaptureDriver,
		BitrateKbps:   cfg.BitrateKbps,
	}

	rel, err := relay.New(captureOpts, cfg.StreamAddr, cfg.MJPEGQuality)
	if err != nil {
		return nil, err
	}

	rtc, err := webrtc.NewStreamer(captureOpts)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Options{
		ListenAddr:      cfg.ListenAddr,
		AnalogThreshold: cfg.AnalogThreshold,
	}, injector, keymap, sess, rel, rtc)
	if err != nil {
		return nil, err
	}

	saveLayout := func(l layout.Layout) error {
		return layout.Save(cfg.LayoutPath, l)
	}
	srv.SetLayoutSaver(saveLayout)

	rtc.SetICEHandler(func(candidate string) {
		err := srv.SendToController(protocol.Message{
			Type:      protocol.TypeWebRTCICE,
			Candidate: candidate,
		})
		if err != nil {
			log.Printf("app: ice candidate not delivered: %v", err)
		}
	})

	bridge := editor.NewBridge(srv, sess, saveLayout)
	srv.SetHandheldHook(bridge.NotifyHandheld)

	return &App{
		cfg:     cfg,
		session: sess,
		server:  srv,
		relay:   rel,
		rtc:     rtc,
		editor:  bridge,
		keymap:  keymap,
	}, nil
}

// Start brings the control listener and the stream endpoint up.
func (a *App) Start() error {
	if err := a.server.Start(); err != nil {
		return err
	}
	if err := a.relay.Run(); err != nil {
		a.stopServer()
		return err
	}
	return nil
}

// Stop shuts everything down in reverse order.
func (a *App) Stop() error {
	a.stopServer()
	if err := a.rtc.Stop(); err != nil {
		log.Printf("app: webrtc stop: %v", err)
	}
	return a.relay.Close()
}

// Editor returns the layout editor websocket handler.
func (a *App) Editor() *editor.Bridge {
	return a.editor
}

// Session returns the runtime session state.
func (a *App) Session() *session.Session {
	return a.session
}

// stopServer stops the control server and logs failures.
func (a *App) stopServer() {
	if err := a.server.Stop(); err != nil {
		log.Printf("app: server stop: %v", err)
	}
}

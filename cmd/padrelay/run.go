// Package main starts the PadRelay desktop server.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/frudas24/padrelay/internal/app"
	"github.com/frudas24/padrelay/internal/config"
	"github.com/frudas24/padrelay/internal/input"
	"github.com/frudas24/padrelay/internal/webrtc"
)

// run wires the application and blocks until shutdown.
func run(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	webrtc.SetDebugLogging(debug)
	if debug {
		log.Printf("debug: enabled")
	}
	logStartup(cfg)

	injector, err := input.NewInjector(cfg.XdotoolPath)
	if err != nil {
		return err
	}

	appInstance, err := app.New(cfg, injector)
	if err != nil {
		return err
	}
	if err := appInstance.Start(); err != nil {
		return err
	}
	defer func() {
		if err := appInstance.Stop(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux, "")
	editorSrv := &http.Server{
		Addr:    cfg.EditorAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := editorSrv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return editorSrv.Shutdown(shutdownCtx)
}

// logFatal prints and exits for startup failures.
func logFatal(err error) {
	log.Printf("fatal: %v", err)
	os.Exit(1)
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Config) {
	log.Printf("PadRelay starting")
	logEnvStatus(cfg)
	logBinaryStatus("ffmpeg", cfg.FFmpegPath)
	if runtime.GOOS != "windows" {
		logBinaryStatus("xdotool", cfg.XdotoolPath)
	}
	logListenStatus(cfg)
}

// logEnvStatus reports whether a .env file was found.
func logEnvStatus(cfg config.Config) {
	envPath := filepath.Join(cfg.DataDir, ".env")
	if fileExists(envPath) {
		log.Printf("env check: ok (%s)", envPath)
	} else {
		log.Printf("env check: missing (%s), using defaults", envPath)
	}
}

// logBinaryStatus reports whether an external binary is discoverable.
func logBinaryStatus(name, path string) {
	resolved := path
	ok := false
	note := ""

	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			ok = true
		case err != nil:
			note = err.Error()
		default:
			note = "path is a directory"
		}
	} else {
		found, err := exec.LookPath(path)
		switch {
		case err == nil:
			ok = true
			resolved = found
		case errors.Is(err, exec.ErrDot):
			note = "found relative to current dir; use absolute path"
		default:
			note = err.Error()
		}
	}

	if ok {
		log.Printf("%s check: ok (%s)", name, resolved)
		return
	}
	if note != "" {
		log.Printf("%s check: missing (%s)", name, note)
		return
	}
	log.Printf("%s check: missing", name)
}

// logListenStatus reports the listen addresses the handheld should use.
func logListenStatus(cfg config.Config) {
	log.Printf("control addr: %s", cfg.ListenAddr)
	log.Printf("stream addr: %s", cfg.StreamAddr)
	host, port, err := net.SplitHostPort(cfg.EditorAddr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Printf("layout editor: http://%s", net.JoinHostPort(host, port))
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

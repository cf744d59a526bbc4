package config

import "testing"

// TestLoad_Defaults verifies defaults apply without any environment.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:5555" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.StreamAddr != "0.0.0.0:5556" {
		t.Fatalf("unexpected stream addr: %s", cfg.StreamAddr)
	}
	if cfg.AnalogThreshold != 0.3 {
		t.Fatalf("unexpected analog threshold: %v", cfg.AnalogThreshold)
	}
}

// TestLoad_EnvOverrides verifies environment variables win.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:6000")
	t.Setenv("ANALOG_THRESHOLD", "0.5")
	t.Setenv("MJPEG_QUALITY", "80")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:6000" {
		t.Fatalf("override ignored: %s", cfg.ListenAddr)
	}
	if cfg.AnalogThreshold != 0.5 || cfg.MJPEGQuality != 80 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
}

// TestLoad_RejectsBadValues verifies validation failures.
func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("MJPEG_QUALITY", "150")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out-of-range quality")
	}
}

// TestLoad_RejectsBadThreshold verifies the threshold bounds.
func TestLoad_RejectsBadThreshold(t *testing.T) {
	t.Setenv("ANALOG_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out-of-range threshold")
	}
}

// TestParseEnvLine verifies .env line parsing.
func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"FPS=60", "FPS", "60", true},
		{"export FPS=60", "FPS", "60", true},
		{`NAME="quoted"`, "NAME", "quoted", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"novalue", "", "", false},
	}
	for _, c := range cases {
		key, value, ok := parseEnvLine(c.line)
		if key != c.key || value != c.value || ok != c.ok {
			t.Fatalf("parseEnvLine(%q) = %q,%q,%v", c.line, key, value, ok)
		}
	}
}

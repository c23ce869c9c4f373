package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{level: "", wantDebug: false, wantWarn: true},
		{level: "debug", wantDebug: true, wantWarn: true},
		{level: "INFO", wantDebug: false, wantWarn: true},
		{level: "error", wantDebug: false, wantWarn: false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, flush, err := New(Config{Level: tt.level}, &buf)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			log.Debug("debug message")
			log.Warn("warn message")
			flush()
			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Fatalf("debug logged = %v, want %v: %s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "warn message"); got != tt.wantWarn {
				t.Fatalf("warn logged = %v, want %v: %s", got, tt.wantWarn, out)
			}
		})
	}
}

func TestNewInvalid(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}, nil); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if _, _, err := New(Config{Format: "xml"}, nil); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, flush, err := New(Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("filter decision", zap.String("path", "/tmp/a.txt"))
	flush()

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("invalid JSON log line: %v: %s", err, buf.String())
	}
	if rec["message"] != "filter decision" || rec["path"] != "/tmp/a.txt" || rec["logger"] != "localfilter" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localfilter.log")
	log, flush, err := New(Config{Level: "info", File: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("written to file")
	flush()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(b), "written to file") {
		t.Fatalf("log file missing message: %s", b)
	}
}

func TestFlushClosesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localfilter.log")
	log, flush, err := New(Config{Level: "info", File: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("first")
	flush()

	// With the handle released the file can be moved away; a later write
	// reopens the configured path.
	if err := os.Rename(path, filepath.Join(dir, "moved.log")); err != nil {
		t.Fatalf("rename after flush: %v", err)
	}
	log.Info("second")
	flush()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading reopened log file: %v", err)
	}
	if strings.Contains(string(b), "first") || !strings.Contains(string(b), "second") {
		t.Fatalf("reopened log file = %q, want only the second message", b)
	}
}

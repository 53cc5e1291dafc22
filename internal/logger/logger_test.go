package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webchat.log")

	l, err := New(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatal(err)
	}

	l.WithSession("s-1").WithEndpoint("demo").Info("connected", zap.Int("frames", 3))
	if err := l.Sync(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	want := map[string]any{"msg": "connected", "session_id": "s-1", "endpoint_id": "demo", "frames": float64(3)}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, entry[k])
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webchat.log")

	l, err := New(Config{Level: "warn", Format: "json", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")
	if err := l.Sync(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("expected debug and info entries filtered, got: %s", data)
	}
	if !strings.Contains(string(data), "shown") {
		t.Errorf("expected the warning, got: %s", data)
	}
}

func TestNewRejectsUnopenableFile(t *testing.T) {
	_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "webchat.log")})
	if err == nil {
		t.Error("expected an error for a file in a missing directory")
	}
}

func TestNopAndDefault(t *testing.T) {
	Nop().Error("discarded")
	if Default() != Default() {
		t.Error("expected Default to return the same logger")
	}
}

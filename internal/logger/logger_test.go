package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/oggyb/connecta/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: FormatText, Component: "test"}, &buf)
	log.Info("hello connecta", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello connecta") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: FormatJSON, Component: "json_test"}, &buf)
	log.Info("json log", "foo", "bar")

	out := buf.String()
	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Format: FormatText}, &buf)
	log.Info("should not appear")
	log.Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureOutput(t, func() {
		Init(&Config{Level: "debug", Format: FormatText})
		log := With("conversation_id", "a_b")
		log.Info("processing request")
	})

	if !strings.Contains(out, "conversation_id=a_b") {
		t.Errorf("expected conversation_id field, got: %s", out)
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	out := captureOutput(t, func() {
		cfg := &config.Config{}
		cfg.Log = config.LogConfig{
			Level:     "debug",
			Format:    "JSON",
			Component: "cfg_test",
			Source:    true,
		}
		InitFromConfig(cfg)
		Debug("cfg-based log")
	})

	if !strings.Contains(out, `"msg":"cfg-based log"`) {
		t.Errorf("expected config-based JSON log, got: %s", out)
	}
	if !strings.Contains(out, `"component":"cfg_test"`) {
		t.Errorf("expected component from config, got: %s", out)
	}
}

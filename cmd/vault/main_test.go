package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/and161185/secure-vault/internal/config"
)

func TestRun_RegisterAndPersist(t *testing.T) {
	data := filepath.Join(t.TempDir(), "secure_data.json")
	in := strings.NewReader("register\ndana\npw\npw\nexit\n")
	var out, errOut bytes.Buffer

	code := run(context.Background(), []string{"-data", data, "-log-level", "warn"}, in, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Registered.") {
		t.Fatalf("stdout:\n%s", out.String())
	}

	b, err := os.ReadFile(data)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	var doc map[string]struct {
		PasswordHash string   `json:"password_hash"`
		Data         []string `json:"data"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["dana"].PasswordHash == "" || doc["dana"].Data == nil {
		t.Fatalf("unexpected document: %s", b)
	}
}

func TestRun_BadConfig(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-backend", "s3"}, strings.NewReader(""), &out, &errOut)
	if code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "unknown backend") {
		t.Fatalf("stderr:\n%s", errOut.String())
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "info"}
	var buf bytes.Buffer
	log, err := newLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	log.Debug("hidden")
	log.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level filtering broken:\n%s", buf.String())
	}

	cfg.Dev = true
	if _, err := newLogger(cfg, &buf); err != nil {
		t.Fatalf("dev logger: %v", err)
	}
	cfg.LogLevel = "loud"
	if _, err := newLogger(cfg, &buf); err == nil {
		t.Fatalf("want error for bad level")
	}
}

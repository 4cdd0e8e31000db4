package logger

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
)

func TestCrashState(t *testing.T) {
	state = &crashState{}

	SetBasePath("/tmp/test-explainer")
	SetVersion("1.0.0-test")
	SetCommand("explainer query --text cohesion")
	SetInputs("ontology/teamMeasurement.ttl", "ontology/instances.ttl")
	SetQuery("  team cohesion  ")

	log := newCrashLog("boom")
	if log.Version != "1.0.0-test" {
		t.Errorf("version = %q", log.Version)
	}
	if log.Command != "explainer query --text cohesion" {
		t.Errorf("command = %q", log.Command)
	}
	if len(log.Inputs) != 2 {
		t.Errorf("inputs = %v", log.Inputs)
	}
	if log.Query != "team cohesion" {
		t.Errorf("query = %q", log.Query)
	}
	if log.PanicValue != "boom" {
		t.Errorf("panic value = %q", log.PanicValue)
	}
	if log.StackTrace == "" || log.GoVersion == "" {
		t.Error("expected stack trace and go version")
	}
}

func TestSetQueryTruncates(t *testing.T) {
	state = &crashState{}
	SetQuery(strings.Repeat("a", 800))
	if len(state.query) > 520 {
		t.Errorf("query not truncated: %d", len(state.query))
	}
	if !strings.HasSuffix(state.query, "[truncated]") {
		t.Error("expected truncation marker")
	}
}

func TestFormatCrashLog(t *testing.T) {
	log := CrashLog{
		Timestamp:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Version:    "1.0.0",
		Command:    "merge",
		Inputs:     []string{"measures.xlsx"},
		Query:      "shared mental models",
		PanicValue: "nil map",
		StackTrace: "goroutine 1 [running]:\nmain.main()",
		GoVersion:  "go1.24.6",
		OS:         "linux",
		Arch:       "amd64",
	}
	formatted := formatCrashLog(log)
	for _, want := range []string{
		"EXPLAINER CRASH LOG",
		"Timestamp: 2025-01-01T12:00:00Z",
		"Command:   merge",
		"OS/Arch:   linux/amd64",
		"PANIC VALUE\n",
		"nil map",
		"goroutine 1 [running]",
		"INPUT FILES",
		"measures.xlsx",
		"LAST QUERY",
		"END OF CRASH LOG",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatted log lacks %q", want)
		}
	}
	if strings.Contains(formatCrashLog(CrashLog{}), "LAST QUERY") {
		t.Error("empty query should omit its section")
	}
}

func TestWriteCrashLog(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".explainer")
	state = &crashState{basePath: base}

	path, err := writeCrashLog(CrashLog{Timestamp: time.Now(), PanicValue: "test panic", StackTrace: "stack"})
	if err != nil {
		t.Fatalf("writeCrashLog: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(base, CrashLogDir) {
		t.Errorf("path = %s", path)
	}
	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 crash log, got %d", len(logs))
	}
	content, err := ReadCrashLog(logs[0])
	if err != nil {
		t.Fatalf("ReadCrashLog: %v", err)
	}
	if !strings.Contains(content, "test panic") {
		t.Error("crash log lacks panic value")
	}
}

func TestWriteCrashLogPrunes(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, CrashLogDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	state = &crashState{basePath: base}
	for i := range MaxCrashLogs + 5 {
		name := filepath.Join(dir, fmt.Sprintf("crash_20240101_1200%02d.log", i))
		if err := os.WriteFile(name, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := writeCrashLog(CrashLog{Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("writeCrashLog: %v", err)
	}
	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != MaxCrashLogs {
		t.Errorf("expected %d logs, got %d", MaxCrashLogs, len(logs))
	}
	if logs[len(logs)-1] != path {
		t.Errorf("newest log %s should be kept", path)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non crash files must survive pruning")
	}
}

func TestCrashLogPath(t *testing.T) {
	state = &crashState{basePath: "/tmp/test"}
	got := crashLogPath(time.Date(2025, 1, 15, 14, 30, 45, 0, time.UTC))
	if got != "/tmp/test/crash_logs/crash_20250115_143045.log" {
		t.Errorf("path = %s", got)
	}

	state = &crashState{}
	if dir := crashLogDir(); dir != filepath.Join(".explainer", CrashLogDir) {
		t.Errorf("default dir = %s", dir)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, config.LogConfig{Level: "warn", Format: "json"}, false))
	l.Info("hidden")
	l.Warn("shown", "row", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"row":3`) {
		t.Errorf("expected json record, got %s", out)
	}

	buf.Reset()
	l = slog.New(NewHandler(&buf, config.LogConfig{Level: "error", Format: "text"}, true))
	l.Debug("detail")
	if !strings.Contains(buf.String(), "msg=detail") {
		t.Errorf("verbose should enable debug, got %s", buf.String())
	}
}

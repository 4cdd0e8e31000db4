// Package logger configures structured logging and records crash reports
// for the explainer.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the crash log directory below the data dir.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is how many crash logs are kept.
	MaxCrashLogs = 10
)

// crashState is what a crash report knows about the running command.
type crashState struct {
	mu       sync.RWMutex
	version  string
	command  string
	inputs   []string
	query    string
	basePath string
}

var state = &crashState{}

// SetBasePath sets the data dir crash logs are written below.
func SetBasePath(path string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.basePath = path
}

// SetVersion records the build version.
func SetVersion(version string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.version = version
}

// SetCommand records the command line being run.
func SetCommand(cmd string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.command = cmd
}

// SetInputs records the graph, workbook and artifact files in use.
func SetInputs(paths ...string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.inputs = append([]string(nil), paths...)
}

// SetQuery records the last search text or path query.
func SetQuery(q string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.query = truncate(strings.TrimSpace(q), 500)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}

// CrashLog is one recorded panic.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	Inputs     []string  `json:"inputs,omitempty"`
	Query      string    `json:"query,omitempty"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic recovers a panic, writes a crash log and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	log := newCrashLog(r)
	path, err := writeCrashLog(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] could not write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] panic: %v\n%s\n", r, log.StackTrace)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\nexplainer stopped on an internal error: %v\n", r)
	fmt.Fprintf(os.Stderr, "crash log: %s\n", path)
	os.Exit(1)
}

func newCrashLog(panicValue any) CrashLog {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return CrashLog{
		Timestamp:  time.Now(),
		Version:    state.version,
		Command:    state.command,
		Inputs:     append([]string(nil), state.inputs...),
		Query:      state.query,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog prunes old logs and writes log, returning its path.
func writeCrashLog(log CrashLog) (string, error) {
	dir := crashLogDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	// keep room for the new file
	if err := pruneCrashLogs(dir, MaxCrashLogs-1); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] prune crash logs: %v\n", err)
	}
	path := crashLogPath(log.Timestamp)
	if err := os.WriteFile(path, []byte(formatCrashLog(log)), 0o644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	return path, nil
}

func crashLogDir() string {
	state.mu.RLock()
	base := state.basePath
	state.mu.RUnlock()
	if base == "" {
		base = ".explainer"
	}
	return filepath.Join(base, CrashLogDir)
}

func crashLogPath(t time.Time) string {
	return filepath.Join(crashLogDir(), fmt.Sprintf("crash_%s.log", t.Format("20060102_150405")))
}

func section(sb *strings.Builder, title, body string) {
	rule := strings.Repeat("-", 80)
	fmt.Fprintf(sb, "\n%s\n%s\n%s\n%s", rule, title, rule, body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
}

// formatCrashLog renders log as plain text.
func formatCrashLog(log CrashLog) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(&sb, "%s\nEXPLAINER CRASH LOG\n%s\n\n", rule, rule)
	fmt.Fprintf(&sb, "Timestamp: %s\n", log.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", log.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", log.Command)
	fmt.Fprintf(&sb, "Go:        %s\n", log.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch:   %s/%s\n", log.OS, log.Arch)

	section(&sb, "PANIC VALUE", log.PanicValue)
	section(&sb, "STACK TRACE", log.StackTrace)
	if len(log.Inputs) > 0 {
		section(&sb, "INPUT FILES", strings.Join(log.Inputs, "\n"))
	}
	if log.Query != "" {
		section(&sb, "LAST QUERY", log.Query)
	}
	fmt.Fprintf(&sb, "\n%s\nEND OF CRASH LOG\n%s\n", rule, rule)
	return sb.String()
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".log")
}

// pruneCrashLogs removes the oldest crash logs so at most keep remain.
// File names carry the timestamp, so name order is age order.
func pruneCrashLogs(dir string, keep int) error {
	logs, err := listCrashLogs(dir)
	if err != nil || len(logs) <= keep {
		return err
	}
	for _, path := range logs[:len(logs)-keep] {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func listCrashLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// ListCrashLogs returns the crash log paths, oldest first.
func ListCrashLogs() ([]string, error) {
	return listCrashLogs(crashLogDir())
}

// ReadCrashLog returns the content of one crash log.
func ReadCrashLog(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

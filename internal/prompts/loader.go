package prompts

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// PromptKey is a type for identifying specific prompts.
type PromptKey string

const (
	// KeyExplainEvidence is the key for the evidence explanation prompt.
	KeyExplainEvidence PromptKey = "ExplainEvidence"
)

// promptConfig defines the default content and filename for a prompt.
type promptConfig struct {
	defaultContent string
	filename       string
}

// promptRegistry maps a PromptKey to its configuration.
var promptRegistry = map[PromptKey]promptConfig{
	KeyExplainEvidence: {
		defaultContent: ExplainEvidencePrompt,
		filename:       "explain_evidence_prompt.txt",
	},
}

// GetPrompt returns the user-provided prompt file for key from dir when it
// exists, otherwise the built-in default. An empty dir always yields the
// default.
func GetPrompt(fs afero.Fs, key PromptKey, dir string) (string, error) {
	cfg, ok := promptRegistry[key]
	if !ok {
		return "", fmt.Errorf("unrecognized prompt key: %s", key)
	}
	if strings.TrimSpace(dir) == "" {
		return cfg.defaultContent, nil
	}

	path := filepath.Join(dir, cfg.filename)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", fmt.Errorf("check custom prompt file at %s: %w", path, err)
	}
	if !exists {
		return cfg.defaultContent, nil
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("read custom prompt file at %s: %w", path, err)
	}
	if _, err := template.New(string(key)).Parse(string(content)); err != nil {
		return "", fmt.Errorf("parse custom prompt file at %s: %w", path, err)
	}
	slog.Debug("using custom prompt", "key", key, "path", path)
	return string(content), nil
}

// Render executes the prompt template text with data.
func Render(text string, data any) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

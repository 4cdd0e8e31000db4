package prompts

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestGetPrompt(t *testing.T) {
	fs := afero.NewMemMapFs()
	custom := "Explain {{.A}} vs {{.B}}:\n{{.Facts}}"
	if err := afero.WriteFile(fs, filepath.Join("custom", "explain_evidence_prompt.txt"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, filepath.Join("broken", "explain_evidence_prompt.txt"), []byte("{{.A"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		key       PromptKey
		dir       string
		wantError bool
		want      string
	}{
		{name: "default without dir", key: KeyExplainEvidence, want: ExplainEvidencePrompt},
		{name: "default when file missing", key: KeyExplainEvidence, dir: "empty", want: ExplainEvidencePrompt},
		{name: "custom file", key: KeyExplainEvidence, dir: "custom", want: custom},
		{name: "unparsable custom file", key: KeyExplainEvidence, dir: "broken", wantError: true},
		{name: "unknown key", key: "Nope", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetPrompt(fs, tt.key, tt.dir)
			if (err != nil) != tt.wantError {
				t.Fatalf("GetPrompt() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("GetPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	out, err := Render(ExplainEvidencePrompt, map[string]string{
		"A":     "coordination",
		"B":     "team performance",
		"Facts": "- effect e1: r = 0.42\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"coordination" and "team performance"`, "r = 0.42", "at most five sentences"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}

	if _, err := Render("{{.Missing}}", map[string]string{}); err == nil {
		t.Error("expected error for missing key")
	}
}

package reasoner

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/prompts"
)

// Explainer turns an evidence summary into prose.
type Explainer interface {
	Explain(ctx context.Context, sum EvidenceSummary) (string, error)
}

// TextExplainer renders a fixed-form explanation without any model call.
type TextExplainer struct{}

// Explain implements Explainer.
func (TextExplainer) Explain(_ context.Context, sum EvidenceSummary) (string, error) {
	var b strings.Builder
	switch {
	case sum.Direct:
		fmt.Fprintf(&b, "%s and %s are linked directly.\n", sum.A.Label, sum.B.Label)
	case sum.Path != nil:
		fmt.Fprintf(&b, "%s reaches %s in %d hops: %s.\n", sum.A.Label, sum.B.Label, sum.Path.Hops(), sum.Path)
		for _, st := range sum.Path.Steps {
			for _, rel := range st.Evidence {
				fmt.Fprintf(&b, "  %s via %s %q\n", st.Construct.Label, strings.ReplaceAll(string(rel.Kind), "_", " "), rel.Via.Label)
			}
		}
	default:
		fmt.Fprintf(&b, "No relationship between %s and %s was found.\n", sum.A.Label, sum.B.Label)
		return b.String(), nil
	}
	for _, e := range sum.Effects {
		fmt.Fprintf(&b, "- effect %s: %s %s on %s%s\n",
			e.Label, formatValue(e.Metric, e.Value), joinLabels(e.Independent), joinLabels(e.Dependent), formatCI(e.LowerCI, e.UpperCI))
	}
	for _, r := range sum.Relationships {
		fmt.Fprintf(&b, "- class-level %s: %s from %s to %s%s\n",
			r.Label, formatValue(r.Metric, r.Value), joinLabels(r.Source), joinLabels(r.Target), formatCI(r.LowerCI, r.UpperCI))
	}
	if sum.Empty() {
		b.WriteString("No effect sizes or class-level relationships are recorded along it.\n")
	}
	return b.String(), nil
}

// LLMExplainer asks a chat model to narrate the fixed-form explanation.
// Prompt is a template over .A, .B and .Facts; empty means the built-in
// prompt.
type LLMExplainer struct {
	Model  model.BaseChatModel
	Prompt string
}

// Explain implements Explainer.
func (x LLMExplainer) Explain(ctx context.Context, sum EvidenceSummary) (string, error) {
	facts, err := TextExplainer{}.Explain(ctx, sum)
	if err != nil {
		return "", err
	}
	text := x.Prompt
	if text == "" {
		text = prompts.ExplainEvidencePrompt
	}
	prompt, err := prompts.Render(text, map[string]string{"A": sum.A.Label, "B": sum.B.Label, "Facts": facts})
	if err != nil {
		return "", err
	}

	resp, err := x.Model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func formatValue(metric string, v *float64) string {
	if v == nil {
		return "value not reported"
	}
	if metric == "" {
		return fmt.Sprintf("%g", *v)
	}
	return fmt.Sprintf("%s = %g", metric, *v)
}

func formatCI(lo, hi *float64) string {
	if lo == nil || hi == nil {
		return ""
	}
	return fmt.Sprintf(" [%g, %g]", *lo, *hi)
}

func joinLabels(refs []ontology.Ref) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.Label
	}
	return strings.Join(parts, ", ")
}

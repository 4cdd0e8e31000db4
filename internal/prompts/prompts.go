// Package prompts holds the chat prompts of the LLM explainer. Each prompt
// is a text/template that a file in the configured prompts directory can
// replace.
package prompts

// ExplainEvidencePrompt asks for a short narrative over the recorded
// evidence between two constructs. Fields: .A, .B and .Facts.
const ExplainEvidencePrompt = `You are a research methodologist summarizing evidence about team performance constructs.

CONSTRUCTS: "{{.A}}" and "{{.B}}"

RECORDED EVIDENCE:
{{.Facts}}
TASK: In at most five sentences, explain how the two constructs relate.
Quote effect sizes and intervals exactly as given. Do not invent studies or values.`

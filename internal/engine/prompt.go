package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/miradorstack/incident-rca/internal/models"
)

const promptPreamble = `You are a senior Site Reliability Engineer analysing a production incident.

Rules:
- Use ONLY the evidence listed below. Do NOT speculate or invent causes.
- Cite evidence exclusively by the id= values shown in the evidence list.
- Never cite an id that does not appear in the evidence list.
- If the evidence is insufficient, set "root_cause" to "insufficient_evidence".
- Separate symptoms from the root cause.
- Recommend concrete remediation steps.
- Assign a confidence between 0.0 and 1.0 to your conclusion.`

const promptSchema = `Respond with a single JSON object and nothing else (no prose, no markdown):
{
  "summary": "<2-3 sentence incident summary>",
  "root_cause": "<most likely root cause or insufficient_evidence>",
  "causal_chain": ["<step>", "<step>"],
  "supporting_evidence_ids": ["<evidence id>"],
  "recommended_actions": ["<action>"],
  "confidence": 0.0
}
Required fields: root_cause, supporting_evidence_ids, confidence.`

// PromptContext carries optional descriptive context rendered into the prompt.
type PromptContext struct {
	Service   string
	Namespace string
}

// PromptBuilder renders evidence-anchored instructions. It keeps no state, and identical
// inputs produce byte-identical prompts.
type PromptBuilder struct{}

// Build renders the prompt for window and ranked.
func (PromptBuilder) Build(window models.IncidentWindow, ranked []models.RankedSignal, pc PromptContext) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\n")

	if pc.Service != "" || pc.Namespace != "" {
		b.WriteString("Incident Context:\n")
		if pc.Service != "" {
			fmt.Fprintf(&b, "- Service: %s\n", pc.Service)
		}
		if pc.Namespace != "" {
			fmt.Fprintf(&b, "- Namespace: %s\n", pc.Namespace)
		}
		b.WriteString("\n")
	}

	b.WriteString("Incident Window:\n")
	fmt.Fprintf(&b, "- Start: %s\n", formatInstant(window.Start))
	fmt.Fprintf(&b, "- End: %s\n", formatInstant(window.End))
	fmt.Fprintf(&b, "- Duration: %d minutes\n", window.DurationMinutes)
	fmt.Fprintf(&b, "- Trigger: %s\n", window.Trigger)
	fmt.Fprintf(&b, "- Detection confidence: %.2f\n\n", window.Confidence)

	b.WriteString("Observed Evidence (ranked by importance):\n")
	if len(ranked) == 0 {
		b.WriteString("(none)\n")
	}
	for i, r := range ranked {
		fmt.Fprintf(&b, "%d. [%s] id=%s | %s | score=%.2f | at=%s | details=%s\n",
			i+1,
			strings.ToUpper(string(r.Category)),
			r.ID,
			r.Reason,
			r.Score,
			formatInstant(r.Timestamp),
			renderDetails(r.Raw),
		)
	}
	b.WriteString("\n")

	b.WriteString("Tasks:\n")
	b.WriteString("1. Summarize the incident in 2-3 sentences.\n")
	b.WriteString("2. Identify the most likely root cause.\n")
	b.WriteString("3. Explain the causal chain step by step.\n")
	b.WriteString("4. List the ids of the evidence supporting the conclusion.\n")
	b.WriteString("5. Recommend concrete remediation actions.\n")
	b.WriteString("6. Provide a confidence score for the conclusion.\n\n")

	b.WriteString(promptSchema)
	return b.String()
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// renderDetails encodes the raw payload with sorted keys. An "id" key is dropped so the
// evidence id field stays the only place ids appear.
func renderDetails(raw map[string]any) string {
	if len(raw) == 0 {
		return "{}"
	}
	payload := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "id" {
			continue
		}
		payload[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(payload))
	}
	return strings.TrimRight(buf.String(), "\n")
}

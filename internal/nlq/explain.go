package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/gradelens/gradelens/internal/llm"
	"github.com/gradelens/gradelens/internal/observability"
)

// Explainer maps (question, sql, result text) to a natural-language
// explanation. A model-client failure here is downgraded to a diagnostic
// string rather than raised: by this point the SQL has already run and the
// raw result is still worth returning.
type Explainer struct {
	client llm.Client
}

func NewExplainer(client llm.Client) *Explainer {
	return &Explainer{client: client}
}

func (e *Explainer) Explain(ctx context.Context, question, sqlText, resultText string) string {
	if e.client == nil {
		return matchFallback(question).explanation
	}

	prompt := buildExplainPrompt(question, sqlText, resultText)
	explanation, err := e.client.Complete(ctx, prompt)
	if err != nil {
		observability.IncrementExplanationDowngrade()
		return fmt.Sprintf("explanation unavailable: %v", err)
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		observability.IncrementExplanationDowngrade()
		return "explanation unavailable: model returned empty output"
	}
	return explanation
}

func buildExplainPrompt(question, sqlText, resultText string) string {
	return fmt.Sprintf(
		"A user asked a question about a school database. Describe the query result in plain "+
			"language, without SQL jargon.\n\n"+
			"Question:\n%s\n\n"+
			"SQL that was executed:\n%s\n\n"+
			"Result:\n%s\n",
		strings.TrimSpace(question),
		sqlText,
		resultText,
	)
}

package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/gradelens/gradelens/internal/llm"
)

// FallbackAnswer carries the pre-baked result attached to a canned SQL
// statement, so the executor can pass it through without touching the store.
type FallbackAnswer struct {
	Result string
}

// Translator maps (question, schema text) to a single SQL statement. With a
// model client it is one prompt and one call, output taken verbatim after
// markdown fence stripping; no SQL parsing or validation happens here. With
// a nil client it answers from the canned fallback rules.
type Translator struct {
	client llm.Client
}

func NewTranslator(client llm.Client) *Translator {
	return &Translator{client: client}
}

// FallbackMode reports whether the translator was constructed without a
// model credential.
func (t *Translator) FallbackMode() bool {
	return t.client == nil
}

func (t *Translator) Translate(ctx context.Context, question, schemaText string) (string, *FallbackAnswer, error) {
	if t.client == nil {
		rule := matchFallback(question)
		return rule.sql, &FallbackAnswer{Result: rule.result}, nil
	}

	prompt := buildTranslatePrompt(question, schemaText)
	raw, err := t.client.Complete(ctx, prompt)
	if err != nil {
		return "", nil, &TranslationError{Err: err}
	}
	sqlText := stripMarkdownSQL(raw)
	if strings.TrimSpace(sqlText) == "" {
		return "", nil, &TranslationError{Err: fmt.Errorf("model returned empty SQL")}
	}
	return sqlText, nil, nil
}

func buildTranslatePrompt(question, schemaText string) string {
	return fmt.Sprintf(
		"You convert natural language questions about a school database into a single SQL query. "+
			"Return ONLY SQL. No markdown, no explanation.\n\n"+
			"Schema:\n%s\n"+
			"Question:\n%s\n\n"+
			"Rules:\n- Use only listed tables.\n- Prefer explicit columns.\n- Output a single read-only SELECT query.",
		schemaText,
		strings.TrimSpace(question),
	)
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

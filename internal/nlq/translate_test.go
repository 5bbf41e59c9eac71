package nlq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTranslateFallbackRulesAndDefault(t *testing.T) {
	translator := NewTranslator(nil)
	if !translator.FallbackMode() {
		t.Fatal("nil client must select fallback mode")
	}

	cases := []struct {
		question string
		wantSQL  string
	}{
		{"查询所有学生信息", "SELECT * FROM students"},
		{"数学成绩最好的是谁", "subject_name = '数学'"},
		{"各科成绩怎么样", "AVG(g.score)"},
		{"最近的出勤情况", "FROM attendance"},
		{"completely unrelated", "SELECT * FROM students LIMIT 10"},
	}
	for _, tc := range cases {
		sqlText, fallback, err := translator.Translate(context.Background(), tc.question, "")
		if err != nil {
			t.Fatalf("Translate(%q) error = %v", tc.question, err)
		}
		if fallback == nil || fallback.Result == "" {
			t.Fatalf("Translate(%q) fallback = %+v, want pre-baked result", tc.question, fallback)
		}
		if !strings.Contains(sqlText, tc.wantSQL) {
			t.Fatalf("Translate(%q) = %q, want fragment %q", tc.question, sqlText, tc.wantSQL)
		}
	}
}

func TestTranslateMoreSpecificRuleWins(t *testing.T) {
	translator := NewTranslator(nil)

	sqlText, _, err := translator.Translate(context.Background(), "学生的数学成绩", "")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if !strings.Contains(sqlText, "subject_name = '数学'") {
		t.Fatalf("Translate() = %q, want the math-grades rule over the generic ones", sqlText)
	}
}

func TestTranslateStripsMarkdownFences(t *testing.T) {
	client := &fakeClient{responses: []string{"```sql\nSELECT student_name FROM students\n```"}}
	translator := NewTranslator(client)

	sqlText, fallback, err := translator.Translate(context.Background(), "list students", "Table students:\n")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if fallback != nil {
		t.Fatalf("fallback = %+v, want nil on the live path", fallback)
	}
	if sqlText != "SELECT student_name FROM students" {
		t.Fatalf("Translate() = %q", sqlText)
	}
}

func TestTranslateModelFailure(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("request timed out")}
	translator := NewTranslator(client)

	_, _, err := translator.Translate(context.Background(), "list students", "")
	var translationErr *TranslationError
	if !errors.As(err, &translationErr) {
		t.Fatalf("Translate() error = %v, want TranslationError", err)
	}
	if !strings.Contains(err.Error(), "request timed out") {
		t.Fatalf("Translate() error = %v, want original message preserved", err)
	}
}

func TestTranslateEmptyModelOutput(t *testing.T) {
	client := &fakeClient{responses: []string{"```sql\n```"}}
	translator := NewTranslator(client)

	_, _, err := translator.Translate(context.Background(), "list students", "")
	var translationErr *TranslationError
	if !errors.As(err, &translationErr) {
		t.Fatalf("Translate() error = %v, want TranslationError", err)
	}
}

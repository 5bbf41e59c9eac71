// Package nlq implements the natural-language query pipeline: a fixed,
// linear state machine that translates a question to SQL, executes it, and
// explains the result. One State is created per question, flows through the
// three stages exactly once, and is returned to the caller.
package nlq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gradelens/gradelens/internal/audit"
	"github.com/gradelens/gradelens/internal/llm"
	"github.com/gradelens/gradelens/internal/observability"
	"github.com/gradelens/gradelens/internal/store"
)

type Pipeline struct {
	introspector *SchemaIntrospector
	translator   *Translator
	executor     *Executor
	explainer    *Explainer
	tables       []string
	runTimeout   time.Duration
	logger       *slog.Logger
	recorder     audit.Recorder
}

type Options struct {
	// Client is the model client; nil selects the credential-less fallback
	// mode for both translation and explanation.
	Client llm.Client
	// Tables is the fixed set of table names described to the model.
	Tables []string
	// RowLimit caps executed result sets; zero means unlimited.
	RowLimit int
	// RunTimeout bounds one whole Run call; zero disables the deadline.
	RunTimeout time.Duration
	Logger     *slog.Logger
	// Recorder, when set, receives a best-effort audit record per run.
	Recorder audit.Recorder
}

func NewPipeline(st store.Store, opts Options) *Pipeline {
	return &Pipeline{
		introspector: NewSchemaIntrospector(st),
		translator:   NewTranslator(opts.Client),
		executor:     NewExecutor(st, opts.RowLimit),
		explainer:    NewExplainer(opts.Client),
		tables:       opts.Tables,
		runTimeout:   opts.RunTimeout,
		logger:       opts.Logger,
		recorder:     opts.Recorder,
	}
}

// FallbackMode reports whether the pipeline answers from canned rules.
func (p *Pipeline) FallbackMode() bool {
	return p.translator.FallbackMode()
}

// Run drives the three stages in order. SchemaError and TranslationError are
// fatal and returned directly. Once SQL generation has succeeded the run
// degrades instead of failing: an execution error is recorded on the state,
// the raw result carries an error marker, and the explainer still produces a
// diagnostic explanation.
func (p *Pipeline) Run(ctx context.Context, question string) (*State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	start := time.Now()
	state := newState(question)

	var schemaText string
	if !p.translator.FallbackMode() {
		rendered, err := p.describeSchema(ctx)
		if err != nil {
			return nil, err
		}
		schemaText = rendered
	}

	sqlText, fallback, err := p.translateStage(ctx, question, schemaText)
	if err != nil {
		return nil, err
	}
	state.SQL = sqlText
	state.UsedFallback = fallback != nil

	p.executeStage(ctx, state, fallback)
	p.explainStage(ctx, state)

	state.Duration = time.Since(start)
	observability.ObservePipelineRun(state.UsedFallback)
	p.record(ctx, state)

	if p.logger != nil {
		p.logger.InfoContext(ctx, "pipeline_run",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.Bool("fallback", state.UsedFallback),
			slog.Int("rows", state.RowCount),
			slog.Bool("exec_failed", state.ExecErr != nil),
			slog.String("duration", state.Duration.String()),
		)
	}
	return state, nil
}

func (p *Pipeline) describeSchema(ctx context.Context) (string, error) {
	start := time.Now()
	schemaText, err := p.introspector.Describe(ctx, p.tables)
	observability.ObserveStage("schema", time.Since(start), err)
	return schemaText, err
}

func (p *Pipeline) translateStage(ctx context.Context, question, schemaText string) (string, *FallbackAnswer, error) {
	start := time.Now()
	sqlText, fallback, err := p.translator.Translate(ctx, question, schemaText)
	observability.ObserveStage("translate", time.Since(start), err)
	return sqlText, fallback, err
}

func (p *Pipeline) executeStage(ctx context.Context, state *State, fallback *FallbackAnswer) {
	if fallback != nil {
		// The one legitimate short-circuit: the canned answer carries its
		// own result text and the store is not touched.
		state.RawResult = fallback.Result
		return
	}

	start := time.Now()
	resultText, rowCount, err := p.executor.Execute(ctx, state.SQL)
	observability.ObserveStage("execute", time.Since(start), err)
	if err != nil {
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			execErr = &ExecutionError{Err: err}
		}
		state.ExecErr = execErr
		state.RawResult = fmt.Sprintf("query failed: %v", execErr.Err)
		return
	}
	state.RawResult = resultText
	state.RowCount = rowCount
	observability.ObserveExecutedRows(rowCount)
}

func (p *Pipeline) explainStage(ctx context.Context, state *State) {
	start := time.Now()
	if state.ExecErr != nil {
		state.Explanation = fmt.Sprintf("the query could not be executed: %v", state.ExecErr.Err)
		observability.IncrementExplanationDowngrade()
		observability.ObserveStage("explain", time.Since(start), nil)
		return
	}
	state.Explanation = p.explainer.Explain(ctx, state.Question, state.SQL, state.RawResult)
	observability.ObserveStage("explain", time.Since(start), nil)
}

func (p *Pipeline) record(ctx context.Context, state *State) {
	if p.recorder == nil {
		return
	}
	outcome := audit.OutcomeOK
	if state.ExecErr != nil {
		outcome = audit.OutcomeExecFailed
	}
	record := audit.Record{
		TraceID:      observability.TraceIDFromContext(ctx),
		Question:     state.Question,
		SQL:          state.SQL,
		UsedFallback: state.UsedFallback,
		Outcome:      outcome,
		RowCount:     state.RowCount,
		DurationMS:   state.Duration.Milliseconds(),
		Explanation:  state.Explanation,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.recorder.Record(ctx, record); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "audit record failed", slog.Any("error", err))
	}
}

package nlq

import "fmt"

// SchemaError reports a table the connected store does not have. It is fatal
// to the request and never retried.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema introspection failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// TranslationError reports a failed model call during SQL generation. Fatal
// to the request: fallback is a construction-time mode, not a runtime retry
// path.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("sql translation failed: %v", e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// ExecutionError wraps a store-level failure while running generated SQL.
// The message keeps the original store error text.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sql execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

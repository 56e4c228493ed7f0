package chapterwise

import "fmt"

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// BackendError indicates a backend transport failure (network error, bad
// status, malformed stream). It is fatal for the current batch; the pipeline
// never retries it.
type BackendError struct {
	Backend   string
	Message   string
	Cause     error
	Retryable bool // Whether operational glue (pull, readiness) may retry
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s backend: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a persistence failure (glossary or session store).
type StoreError struct {
	Operation string // "load", "save", "delete", "encode", "decode"
	Key       string
	Cause     error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store %s %q: %v", e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("store %s %q failed", e.Operation, e.Key)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ExtractError indicates a document extraction failure, including the
// user-facing rejection of an unsupported input format.
type ExtractError struct {
	Format  string
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract error (%s): %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract error (%s): %s", e.Format, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

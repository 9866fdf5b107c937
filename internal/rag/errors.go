// Package rag holds the pure parts of the retrieval-augmented generation
// pipeline: chunking, prompt assembly and the failure taxonomy shared by the
// ingest and generate services.
package rag

import "errors"

var (
	ErrExtractionFailure        = errors.New("extraction failure")
	ErrNoIngestibleContent      = errors.New("no ingestible content")
	ErrEmbeddingServiceFailure  = errors.New("embedding service failure")
	ErrCompletionServiceFailure = errors.New("completion service failure")
	ErrStorageReadFailure       = errors.New("storage read failure")
	ErrDocumentNotFound         = errors.New("document not found")
	ErrPersistenceFailure       = errors.New("persistence failure")
)

var stageNames = map[error]string{
	ErrExtractionFailure:        "extraction",
	ErrNoIngestibleContent:      "chunking",
	ErrEmbeddingServiceFailure:  "embedding",
	ErrCompletionServiceFailure: "completion",
	ErrStorageReadFailure:       "storage",
	ErrDocumentNotFound:         "document",
	ErrPersistenceFailure:       "persistence",
}

// StageError pairs a taxonomy kind with the error that caused it. Both are
// reachable through errors.Is and errors.As.
type StageError struct {
	Kind error
	Err  error
}

func Fail(kind, err error) error {
	return &StageError{Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Stage names the pipeline stage an error belongs to, or "" when err is
// outside the taxonomy.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return stageNames[se.Kind]
	}
	return ""
}

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmbeddingFailed  = errors.New("embedding request failed")
	ErrCompletionFailed = errors.New("completion request failed")
	ErrEmptyInput       = errors.New("embedding input is empty")
)

const (
	OpEmbedding  = "embedding"
	OpCompletion = "completion"
)

// ProviderError is a failed call to the provider. StatusCode is 0 when no
// response was received, in which case Err holds the transport error.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s provider call failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s provider status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() []error {
	var errs []error
	switch e.Op {
	case OpEmbedding:
		errs = append(errs, ErrEmbeddingFailed)
	case OpCompletion:
		errs = append(errs, ErrCompletionFailed)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// providerMessage prefers the OpenAI-style {"error":{"message":...}} body and
// falls back to the raw text.
func providerMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}

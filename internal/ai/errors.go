// errors.go - Error taxonomy for model calls and response parsing

package ai

import "fmt"

// ProviderError represents a categorized model-API failure.
type ProviderError struct {
	OriginalError error
	Category      string
	StatusCode    int
	Message       string
	Retryable     bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status: %d, retryable: %v)", e.Category, e.Message, e.StatusCode, e.Retryable)
}

func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// ParseError means the model returned text that could not be coerced into a
// JSON object. Raw carries the original response for manual inspection.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	if e.Raw == "" {
		return "model returned no text"
	}
	return fmt.Sprintf("model output is not valid JSON (%d chars)", len(e.Raw))
}

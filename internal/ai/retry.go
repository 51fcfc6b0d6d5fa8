// retry.go - Retry logic and error categorization for Gemini API calls

package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/wilksmax/pokervision/internal/common"
)

// RetryConfig defines retry behavior for model API calls
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults for retry behavior
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
}

// categorizeAPIError analyzes an error and determines retry strategy
func categorizeAPIError(err error) *ProviderError {
	if err == nil {
		return nil
	}

	provErr := &ProviderError{
		OriginalError: err,
		Category:      "unknown",
		Message:       err.Error(),
		Retryable:     false,
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		categorizeByStatus(provErr, apiErr.Code, apiErr.Message)
		return provErr
	}

	if err == context.DeadlineExceeded {
		provErr.Category = "timeout"
		provErr.Message = "request timeout - processing took too long"
		provErr.Retryable = true
		return provErr
	}

	if err == context.Canceled {
		provErr.Category = "canceled"
		provErr.Message = "request was canceled"
		return provErr
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "resource exhausted") {
		provErr.Category = "quota_exceeded"
		provErr.Message = "API quota exceeded"
		return provErr
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline") {
		provErr.Category = "timeout"
		provErr.Retryable = true
		return provErr
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") {
		provErr.Category = "network_error"
		provErr.Retryable = true
		return provErr
	}

	return provErr
}

// categorizeByStatus fills in category and retryability from an HTTP status.
// Shared between the Gemini path (googleapi.Error) and the OpenAI path
// (plain status codes).
func categorizeByStatus(provErr *ProviderError, status int, message string) {
	provErr.StatusCode = status

	switch status {
	case 400:
		provErr.Category = "bad_request"
		provErr.Message = "invalid request format or parameters"
	case 401:
		provErr.Category = "unauthorized"
		provErr.Message = "invalid API key or authentication failed"
	case 403:
		provErr.Category = "forbidden"
		provErr.Message = "API key lacks required permissions"
	case 404:
		provErr.Category = "not_found"
		provErr.Message = "model not found or invalid endpoint"
	case 413:
		provErr.Category = "payload_too_large"
		provErr.Message = "request size exceeds limit (reduce image size)"
	case 429:
		provErr.Category = "rate_limit"
		provErr.Message = "rate limit exceeded - too many requests"
		provErr.Retryable = true
	case 500, 502, 503, 504:
		provErr.Category = "server_error"
		provErr.Message = fmt.Sprintf("provider server error (%d)", status)
		provErr.Retryable = true
	default:
		provErr.Category = "unknown_api_error"
		if message != "" {
			provErr.Message = message
		}
		provErr.Retryable = status >= 500
	}
}

// callGeminiWithRetry executes a Gemini API call with retry logic
func callGeminiWithRetry(
	ctx context.Context,
	model *genai.GenerativeModel,
	reqCtx *common.RequestContext,
	config RetryConfig,
	parts ...genai.Part,
) (*genai.GenerateContentResponse, error) {

	var lastErr *ProviderError

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if attempt > 1 {
			reqCtx.LogInfo("Retry attempt %d/%d", attempt, config.MaxAttempts)
		}

		resp, err := model.GenerateContent(ctx, parts...)
		if err == nil {
			if attempt > 1 {
				reqCtx.LogInfo("✅ Retry succeeded on attempt %d", attempt)
			}
			return resp, nil
		}

		lastErr = categorizeAPIError(err)
		reqCtx.LogError("API call failed (attempt %d/%d): %s", attempt, config.MaxAttempts, lastErr.Error())

		if !lastErr.Retryable {
			return nil, lastErr
		}

		if attempt >= config.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt, config)
		if lastErr.Category == "rate_limit" {
			delay *= 2
			reqCtx.LogWarning("Rate limit hit, waiting %v before retry", delay)
		} else {
			reqCtx.LogInfo("Waiting %v before retry", delay)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry wait: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("model API call failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// calculateBackoff computes exponential backoff delay
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

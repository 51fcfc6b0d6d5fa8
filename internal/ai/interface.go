// interface.go - Vision provider interface for supporting multiple AI backends

package ai

import (
	"context"

	"github.com/wilksmax/pokervision/internal/common"
)

// Image is a prepared screenshot ready for upload.
type Image struct {
	Data     []byte
	MIMEType string
}

// CallResult is the outcome of one model call: the parsed object (nil when
// parsing failed), the raw response text for diagnostics, and token usage.
type CallResult struct {
	Object map[string]interface{}
	Raw    string
	Tokens *common.TokenUsage
}

// Provider defines the four model calls the pipeline makes. Implementations
// exist for Gemini and any OpenAI-compatible Responses endpoint; tests use a
// stub.
type Provider interface {
	// ExtractStateStrict runs the schema-constrained extraction call.
	ExtractStateStrict(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error)

	// ExtractStateLoose runs the unconstrained extraction call; the shape is
	// requested by description only and parsed after the fact.
	ExtractStateLoose(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error)

	// SelfCheckState asks a cheaper model to validate and correct an already
	// extracted state, given its JSON. The image is not re-sent.
	SelfCheckState(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error)

	// RecommendAction asks for a strategy recommendation as free-form JSON.
	RecommendAction(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error)

	// Name returns the provider name, e.g. "gemini".
	Name() string
}

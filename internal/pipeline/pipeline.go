// pipeline.go - The extract / repair / check / recommend flow

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/ai"
	"github.com/wilksmax/pokervision/internal/common"
	"github.com/wilksmax/pokervision/internal/poker"
)

// Pipeline runs the analysis stages against one provider. Stateless: safe
// for concurrent requests.
type Pipeline struct {
	provider ai.Provider
}

// NewPipeline creates a pipeline backed by the given provider
func NewPipeline(provider ai.Provider) *Pipeline {
	return &Pipeline{provider: provider}
}

// ExtractTableState produces a corrected table state from a screenshot.
//
// Stage policy: a provider failure on the strict call falls through to the
// loose call (the loose path is the fallback for ALL strict failures, not
// just parse failures). A loose-path provider failure is fatal. Unparseable
// text from both attempts is an ExtractionError. A structurally incomplete
// state after correction is an IncompleteStateError carrying the partial.
// Self-check failures of any kind are absorbed: the pre-check state wins.
func (p *Pipeline) ExtractTableState(ctx context.Context, img ai.Image, reqCtx *common.RequestContext) (map[string]interface{}, []poker.RuleFailure, error) {
	var state map[string]interface{}
	var strictRaw, looseRaw string

	if configs.STRICT_EXTRACTION {
		result, err := p.callWithTimeout(ctx, configs.EXTRACTION_TIMEOUT, func(callCtx context.Context) (*ai.CallResult, error) {
			return p.provider.ExtractStateStrict(callCtx, img, reqCtx)
		})
		reqCtx.AddTokens(tokensOf(result))
		if err == nil {
			state = result.Object
		} else {
			if result != nil {
				strictRaw = result.Raw
			}
			reqCtx.LogWarning("Strict extraction failed, falling back to loose: %v", err)
		}
	}

	if state == nil {
		result, err := p.callWithTimeout(ctx, configs.EXTRACTION_TIMEOUT, func(callCtx context.Context) (*ai.CallResult, error) {
			return p.provider.ExtractStateLoose(callCtx, img, reqCtx)
		})
		reqCtx.AddTokens(tokensOf(result))
		if err != nil {
			var parseErr *ai.ParseError
			if errors.As(err, &parseErr) {
				if result != nil {
					looseRaw = result.Raw
				}
				return nil, nil, &ExtractionError{StrictRaw: strictRaw, LooseRaw: looseRaw}
			}
			return nil, nil, err
		}
		state = result.Object
	}

	failures := poker.CorrectState(state)
	for _, f := range failures {
		reqCtx.LogWarning("Repair rule %s failed: %s", f.Rule, f.Reason)
	}

	if missing := poker.MissingTopLevel(state); len(missing) > 0 {
		return nil, failures, &IncompleteStateError{Missing: missing, Partial: state}
	}

	if configs.ENABLE_SELF_CHECK {
		state = p.selfCheck(ctx, state, reqCtx)
		// The checked state went through a model again, so it gets the same
		// repair pass the first extraction got.
		checkFailures := poker.CorrectState(state)
		for _, f := range checkFailures {
			reqCtx.LogWarning("Repair rule %s failed after self-check: %s", f.Rule, f.Reason)
		}
		failures = append(failures, checkFailures...)
	}

	return state, failures, nil
}

// selfCheck runs the corrective round-trip. Every failure mode keeps the
// input state: a broken check must never lose a good extraction.
//
// It runs inside the caller's open extraction step, so it must not open a
// step of its own (steps do not nest). The provider logs the call as a
// sub-step; token usage is folded into the request total directly.
func (p *Pipeline) selfCheck(ctx context.Context, state map[string]interface{}, reqCtx *common.RequestContext) map[string]interface{} {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return state
	}

	result, err := p.callWithTimeout(ctx, configs.SELF_CHECK_TIMEOUT, func(callCtx context.Context) (*ai.CallResult, error) {
		return p.provider.SelfCheckState(callCtx, string(stateJSON), reqCtx)
	})
	reqCtx.AddTokens(tokensOf(result))
	if err != nil {
		reqCtx.LogWarning("Self-check failed, keeping original state: %v", err)
		return state
	}

	checked := result.Object
	if missing := poker.MissingTopLevel(checked); len(missing) > 0 {
		reqCtx.LogWarning("Self-check returned an incomplete state, keeping original")
		return state
	}

	return checked
}

// Recommend asks the strategy model for a recommendation on the given state.
func (p *Pipeline) Recommend(ctx context.Context, state map[string]interface{}, reqCtx *common.RequestContext) (*poker.Recommendation, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	result, err := p.callWithTimeout(ctx, configs.STRATEGY_TIMEOUT, func(callCtx context.Context) (*ai.CallResult, error) {
		return p.provider.RecommendAction(callCtx, string(stateJSON), reqCtx)
	})
	reqCtx.AddTokens(tokensOf(result))
	if err != nil {
		return nil, err
	}

	// Round-trip the loose object through JSON into the typed shape.
	// FlexNumber absorbs string-typed frequencies on the way.
	objJSON, err := json.Marshal(result.Object)
	if err != nil {
		return nil, err
	}
	var rec poker.Recommendation
	if err := json.Unmarshal(objJSON, &rec); err != nil {
		return nil, &ai.ParseError{Raw: result.Raw}
	}

	return &rec, nil
}

// callWithTimeout gives one model call its own deadline in seconds.
func (p *Pipeline) callWithTimeout(ctx context.Context, timeoutSec int, call func(context.Context) (*ai.CallResult, error)) (*ai.CallResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	return call(callCtx)
}

func tokensOf(result *ai.CallResult) *common.TokenUsage {
	if result == nil {
		return nil
	}
	return result.Tokens
}

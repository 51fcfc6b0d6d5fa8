// openai.go - Provider for OpenAI-compatible Responses endpoints

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/common"
)

// OpenAIProvider implements Provider against any endpoint speaking the
// Responses API shape. The client is hand-rolled: the surface we need is
// one POST and one envelope.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider creates a provider for the configured endpoint.
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  configs.OPENAI_API_KEY,
		baseURL: strings.TrimRight(configs.OPENAI_API_BASE, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// responsesRequest is the subset of the Responses API we use.
type responsesRequest struct {
	Model       string          `json:"model"`
	Input       []inputMessage  `json:"input"`
	Text        *textFormatSpec `json:"text,omitempty"`
	Temperature float64         `json:"temperature"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type     string `json:"type"` // "input_text" or "input_image"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type textFormatSpec struct {
	Format formatSpec `json:"format"`
}

type formatSpec struct {
	Type   string                 `json:"type"` // "json_schema"
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
	Strict bool                   `json:"strict"`
}

// ResponsesEnvelope is the reply shape. Providers differ: some populate the
// flat output_text convenience field, others only the nested output items.
type ResponsesEnvelope struct {
	OutputText string       `json:"output_text"`
	Output     []OutputItem `json:"output"`
	Usage      *UsageBlock  `json:"usage"`
	Error      *APIError    `json:"error"`
}

type OutputItem struct {
	Type    string        `json:"type"` // "message" carries text content
	Content []OutputBlock `json:"content"`
}

type OutputBlock struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text"`
}

type UsageBlock struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// CollectOutputText flattens an envelope into a single string. The flat
// output_text field wins when present; otherwise every output_text block of
// every output item is trimmed and joined by newline. An empty result is
// valid, never an error.
func CollectOutputText(env *ResponsesEnvelope) string {
	if env == nil {
		return ""
	}

	if trimmed := strings.TrimSpace(env.OutputText); trimmed != "" {
		return trimmed
	}

	var parts []string
	for _, item := range env.Output {
		for _, block := range item.Content {
			// Any block carrying text counts; providers are inconsistent
			// about tagging block types.
			if trimmed := strings.TrimSpace(block.Text); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}

	return strings.Join(parts, "\n")
}

// ExtractStateStrict runs the schema-constrained extraction call.
func (p *OpenAIProvider) ExtractStateStrict(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error) {
	req := responsesRequest{
		Model: configs.EXTRACTION_MODEL_NAME,
		Input: []inputMessage{
			systemMessage(ExtractionSystemInstruction),
			imageMessage(img, StrictExtractionPrompt),
		},
		Text: &textFormatSpec{
			Format: formatSpec{
				Type:   "json_schema",
				Name:   "table_state",
				Schema: SchemaToJSONMap(TableStateSchema()),
				Strict: true,
			},
		},
		Temperature: 0.0,
	}

	reqCtx.StartSubStep("Calling " + configs.EXTRACTION_MODEL_NAME + " (strict)")
	env, err := p.call(ctx, reqCtx, req)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromEnvelope(env, common.CalculateExtractionTokenCost)
}

// ExtractStateLoose runs the unconstrained extraction call.
func (p *OpenAIProvider) ExtractStateLoose(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error) {
	req := responsesRequest{
		Model: configs.EXTRACTION_MODEL_NAME,
		Input: []inputMessage{
			systemMessage(ExtractionSystemInstruction),
			imageMessage(img, LooseExtractionPrompt()),
		},
		Temperature: 0.0,
	}

	reqCtx.StartSubStep("Calling " + configs.EXTRACTION_MODEL_NAME + " (loose)")
	env, err := p.call(ctx, reqCtx, req)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromEnvelope(env, common.CalculateExtractionTokenCost)
}

// SelfCheckState validates an extracted state with the check model.
func (p *OpenAIProvider) SelfCheckState(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error) {
	req := responsesRequest{
		Model: configs.CHECK_MODEL_NAME,
		Input: []inputMessage{
			textMessage("user", SelfCheckPrompt(stateJSON)),
		},
		Temperature: 0.0,
	}

	reqCtx.StartSubStep("Calling " + configs.CHECK_MODEL_NAME + " (self-check)")
	env, err := p.call(ctx, reqCtx, req)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromEnvelope(env, common.CalculateCheckTokenCost)
}

// RecommendAction asks the strategy model for a recommendation.
func (p *OpenAIProvider) RecommendAction(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error) {
	req := responsesRequest{
		Model: configs.STRATEGY_MODEL_NAME,
		Input: []inputMessage{
			systemMessage(StrategySystemInstruction),
			textMessage("user", StrategyPrompt(stateJSON)),
		},
		Temperature: 0.3,
	}

	reqCtx.StartSubStep("Calling " + configs.STRATEGY_MODEL_NAME + " (strategy)")
	env, err := p.call(ctx, reqCtx, req)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromEnvelope(env, common.CalculateStrategyTokenCost)
}

// call executes one Responses request with retry on retryable failures.
func (p *OpenAIProvider) call(ctx context.Context, reqCtx *common.RequestContext, req responsesRequest) (*ResponsesEnvelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	config := DefaultRetryConfig
	var lastErr *ProviderError

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if attempt > 1 {
			reqCtx.LogInfo("Retry attempt %d/%d", attempt, config.MaxAttempts)
		}

		env, provErr := p.doRequest(ctx, body)
		if provErr == nil {
			return env, nil
		}

		lastErr = provErr
		reqCtx.LogError("API call failed (attempt %d/%d): %s", attempt, config.MaxAttempts, provErr.Error())

		if !provErr.Retryable {
			return nil, provErr
		}
		if attempt >= config.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt, config)
		if provErr.Category == "rate_limit" {
			delay *= 2
			reqCtx.LogWarning("Rate limit hit, waiting %v before retry", delay)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry wait: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("model API call failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func (p *OpenAIProvider) doRequest(ctx context.Context, body []byte) (*ResponsesEnvelope, *ProviderError) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, categorizeAPIError(err)
	}

	if resp.StatusCode != http.StatusOK {
		provErr := &ProviderError{
			OriginalError: fmt.Errorf("responses endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 300)),
		}
		categorizeByStatus(provErr, resp.StatusCode, "")
		return nil, provErr
	}

	var env ResponsesEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &ProviderError{
			OriginalError: err,
			Category:      "bad_envelope",
			Message:       "failed to decode response envelope",
		}
	}

	// Some providers report failures inside a 200 envelope.
	if env.Error != nil {
		return nil, &ProviderError{
			OriginalError: fmt.Errorf("%s: %s", env.Error.Type, env.Error.Message),
			Category:      "api_error",
			Message:       env.Error.Message,
		}
	}

	return &env, nil
}

func (p *OpenAIProvider) resultFromEnvelope(
	env *ResponsesEnvelope,
	costFn func(in, out int) common.TokenUsage,
) (*CallResult, error) {

	result := &CallResult{
		Raw: CollectOutputText(env),
	}

	if env.Usage != nil {
		usage := costFn(env.Usage.InputTokens, env.Usage.OutputTokens)
		result.Tokens = &usage
	}

	obj, err := ExtractJSONObject(result.Raw)
	if err != nil {
		return result, err
	}
	result.Object = obj
	return result, nil
}

func systemMessage(text string) inputMessage {
	return textMessage("system", text)
}

func textMessage(role, text string) inputMessage {
	return inputMessage{
		Role:    role,
		Content: []contentBlock{{Type: "input_text", Text: text}},
	}
}

func imageMessage(img Image, prompt string) inputMessage {
	dataURI := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
	return inputMessage{
		Role: "user",
		Content: []contentBlock{
			{Type: "input_image", ImageURL: dataURI},
			{Type: "input_text", Text: prompt},
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// gemini.go - Gemini implementation of the vision provider

package ai

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/common"
)

// GeminiProvider implements Provider using the Gemini API
type GeminiProvider struct{}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// ExtractStateStrict runs the schema-constrained extraction call. The model
// is forced to emit JSON matching TableStateSchema, so a parse failure here
// means the provider misbehaved, not that the prompt was vague.
func (p *GeminiProvider) ExtractStateStrict(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(configs.GEMINI_API_KEY))
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(configs.EXTRACTION_MODEL_NAME)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractionSystemInstruction)},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = TableStateSchema()
	model.SetTemperature(0.0)

	reqCtx.StartSubStep("Calling " + configs.EXTRACTION_MODEL_NAME + " (strict)")
	resp, err := callGeminiWithRetry(ctx, model, reqCtx, DefaultRetryConfig,
		genai.ImageData(subtypeOf(img.MIMEType), img.Data),
		genai.Text(StrictExtractionPrompt),
	)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromResponse(resp, common.CalculateExtractionTokenCost)
}

// ExtractStateLoose runs the unconstrained extraction call. The shape is
// requested by prompt only and the reply is parsed with the loose extractor.
func (p *GeminiProvider) ExtractStateLoose(ctx context.Context, img Image, reqCtx *common.RequestContext) (*CallResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(configs.GEMINI_API_KEY))
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(configs.EXTRACTION_MODEL_NAME)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractionSystemInstruction)},
	}
	model.SetTemperature(0.0)

	reqCtx.StartSubStep("Calling " + configs.EXTRACTION_MODEL_NAME + " (loose)")
	resp, err := callGeminiWithRetry(ctx, model, reqCtx, DefaultRetryConfig,
		genai.ImageData(subtypeOf(img.MIMEType), img.Data),
		genai.Text(LooseExtractionPrompt()),
	)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromResponse(resp, common.CalculateExtractionTokenCost)
}

// SelfCheckState asks the cheaper check model to validate an extracted state.
// Text only: the screenshot is not re-sent.
func (p *GeminiProvider) SelfCheckState(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(configs.GEMINI_API_KEY))
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(configs.CHECK_MODEL_NAME)
	model.SetTemperature(0.0)

	reqCtx.StartSubStep("Calling " + configs.CHECK_MODEL_NAME + " (self-check)")
	resp, err := callGeminiWithRetry(ctx, model, reqCtx, DefaultRetryConfig,
		genai.Text(SelfCheckPrompt(stateJSON)),
	)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromResponse(resp, common.CalculateCheckTokenCost)
}

// RecommendAction asks the strategy model for a recommendation.
func (p *GeminiProvider) RecommendAction(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*CallResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(configs.GEMINI_API_KEY))
	if err != nil {
		return nil, categorizeAPIError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(configs.STRATEGY_MODEL_NAME)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(StrategySystemInstruction)},
	}
	model.SetTemperature(0.3)

	reqCtx.StartSubStep("Calling " + configs.STRATEGY_MODEL_NAME + " (strategy)")
	resp, err := callGeminiWithRetry(ctx, model, reqCtx, DefaultRetryConfig,
		genai.Text(StrategyPrompt(stateJSON)),
	)
	if err != nil {
		return nil, err
	}
	reqCtx.EndSubStep("")

	return p.resultFromResponse(resp, common.CalculateStrategyTokenCost)
}

// resultFromResponse flattens the response text, records token usage, and
// attempts the loose JSON parse. A parse failure still returns the raw text
// and token usage alongside the error so the caller can decide what to do.
func (p *GeminiProvider) resultFromResponse(
	resp *genai.GenerateContentResponse,
	costFn func(in, out int) common.TokenUsage,
) (*CallResult, error) {

	result := &CallResult{
		Raw: CollectGeminiText(resp),
	}

	if resp != nil && resp.UsageMetadata != nil {
		usage := costFn(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
		result.Tokens = &usage
	}

	obj, err := ExtractJSONObject(result.Raw)
	if err != nil {
		return result, err
	}
	result.Object = obj
	return result, nil
}

// subtypeOf maps a MIME type like "image/png" to the bare subtype genai
// expects. Unknown types default to jpeg.
func subtypeOf(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}

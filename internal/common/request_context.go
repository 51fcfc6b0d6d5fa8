// request_context.go - Request tracking and logging system

package common

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wilksmax/pokervision/configs"
)

// RequestContext tracks the entire request lifecycle with timing and costs
type RequestContext struct {
	RequestID           string
	StartTime           time.Time
	Steps               []StepLog
	TotalTokens         TokenUsage
	CurrentStep         string
	CurrentStepStart    time.Time
	CurrentSubSteps     []SubStepLog
	CurrentSubStep      string
	CurrentSubStepStart time.Time
}

// StepLog represents a single processing step
type StepLog struct {
	Name      string       `json:"name"`
	StartTime time.Time    `json:"start_time"`
	Duration  int64        `json:"duration_ms"`
	Status    string       `json:"status"` // "success", "failed", "skipped"
	Tokens    *TokenUsage  `json:"tokens,omitempty"`
	Error     string       `json:"error,omitempty"`
	SubSteps  []SubStepLog `json:"sub_steps,omitempty"`
}

// SubStepLog represents a detailed sub-operation within a step
type SubStepLog struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration_ms"`
	Details   string    `json:"details,omitempty"`
}

// TokenUsage tracks API token consumption
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// NewRequestContext creates a new request tracking context
func NewRequestContext() *RequestContext {
	reqID := uuid.New().String()
	now := time.Now()

	log.Printf("[%s] 🚀 New request | time: %s", reqID, now.Format("15:04:05"))

	return &RequestContext{
		RequestID:   reqID,
		StartTime:   now,
		Steps:       []StepLog{},
		TotalTokens: TokenUsage{},
	}
}

// StartStep begins tracking a new processing step
func (rc *RequestContext) StartStep(stepName string) {
	rc.CurrentStep = stepName
	rc.CurrentStepStart = time.Now()

	stepDescriptions := map[string]string{
		"save_upload":         "📷 Save uploaded screenshot",
		"prepare_screenshot":  "🔧 Prepare screenshot",
		"extract_table_state": "🔍 Extract table state",
		"strategy_recommend":  "💡 Strategy recommendation",
	}

	desc := stepDescriptions[stepName]
	if desc == "" {
		desc = stepName
	}

	log.Printf("[%s] \n┌── %s", rc.RequestID, desc)
}

// EndStep completes the current step and records timing
func (rc *RequestContext) EndStep(status string, tokens *TokenUsage, err error) {
	duration := time.Since(rc.CurrentStepStart).Milliseconds()

	stepLog := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration,
		Status:    status,
		Tokens:    tokens,
		SubSteps:  rc.CurrentSubSteps,
	}

	if err != nil {
		stepLog.Error = err.Error()
		log.Printf("[%s] └── ❌ FAILED - %s (%.2fs) - Error: %v",
			rc.RequestID, rc.CurrentStep, float64(duration)/1000, err)
	} else {
		logMsg := fmt.Sprintf("[%s] └── ✅ done: %.2fs",
			rc.RequestID, float64(duration)/1000)

		if tokens != nil {
			rc.TotalTokens.InputTokens += tokens.InputTokens
			rc.TotalTokens.OutputTokens += tokens.OutputTokens
			rc.TotalTokens.TotalTokens += tokens.TotalTokens
			rc.TotalTokens.CostUSD += tokens.CostUSD

			logMsg += fmt.Sprintf(" | 🪙 Tokens: %din + %dout = %d | 💰 $%.4f",
				tokens.InputTokens, tokens.OutputTokens, tokens.TotalTokens, tokens.CostUSD)
		}

		log.Print(logMsg)
	}

	rc.Steps = append(rc.Steps, stepLog)
	rc.CurrentStep = ""
	rc.CurrentSubSteps = []SubStepLog{}
}

// AddTokens folds one model call's usage into the request total. Used for
// calls that happen inside an already-open step, where EndStep's token
// argument is not available.
func (rc *RequestContext) AddTokens(tokens *TokenUsage) {
	if tokens == nil {
		return
	}
	rc.TotalTokens.InputTokens += tokens.InputTokens
	rc.TotalTokens.OutputTokens += tokens.OutputTokens
	rc.TotalTokens.TotalTokens += tokens.TotalTokens
	rc.TotalTokens.CostUSD += tokens.CostUSD
}

// CalculateExtractionTokenCost calculates cost for the extraction stage model
func CalculateExtractionTokenCost(inputTokens, outputTokens int) TokenUsage {
	return calculateCost(inputTokens, outputTokens,
		configs.EXTRACTION_INPUT_PRICE_PER_MILLION, configs.EXTRACTION_OUTPUT_PRICE_PER_MILLION)
}

// CalculateCheckTokenCost calculates cost for the self-check stage model
func CalculateCheckTokenCost(inputTokens, outputTokens int) TokenUsage {
	return calculateCost(inputTokens, outputTokens,
		configs.CHECK_INPUT_PRICE_PER_MILLION, configs.CHECK_OUTPUT_PRICE_PER_MILLION)
}

// CalculateStrategyTokenCost calculates cost for the strategy stage model
func CalculateStrategyTokenCost(inputTokens, outputTokens int) TokenUsage {
	return calculateCost(inputTokens, outputTokens,
		configs.STRATEGY_INPUT_PRICE_PER_MILLION, configs.STRATEGY_OUTPUT_PRICE_PER_MILLION)
}

func calculateCost(inputTokens, outputTokens int, inputPrice, outputPrice float64) TokenUsage {
	inputCost := float64(inputTokens) * inputPrice / 1_000_000
	outputCost := float64(outputTokens) * outputPrice / 1_000_000

	return TokenUsage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      inputCost + outputCost,
	}
}

// GetSummary returns a final summary of the entire request
func (rc *RequestContext) GetSummary() map[string]interface{} {
	totalDuration := time.Since(rc.StartTime).Milliseconds()

	stepBreakdown := make(map[string]int64)
	for _, step := range rc.Steps {
		stepBreakdown[step.Name] = step.Duration
	}

	summary := map[string]interface{}{
		"request_id":         rc.RequestID,
		"total_duration_ms":  totalDuration,
		"total_duration_sec": float64(totalDuration) / 1000,
		"step_breakdown":     stepBreakdown,
		"total_steps":        len(rc.Steps),
		"token_usage": map[string]interface{}{
			"input_tokens":  rc.TotalTokens.InputTokens,
			"output_tokens": rc.TotalTokens.OutputTokens,
			"total_tokens":  rc.TotalTokens.TotalTokens,
			"cost_usd":      fmt.Sprintf("$%.4f", rc.TotalTokens.CostUSD),
		},
	}

	log.Printf("[%s] ⏱️  total: %.2fs | steps: %d | 🪙 %din + %dout = %d | 💰 $%.4f",
		rc.RequestID,
		float64(totalDuration)/1000,
		len(rc.Steps),
		rc.TotalTokens.InputTokens,
		rc.TotalTokens.OutputTokens,
		rc.TotalTokens.TotalTokens,
		rc.TotalTokens.CostUSD)

	return summary
}

// StartSubStep begins tracking a detailed sub-operation
func (rc *RequestContext) StartSubStep(subStepName string) {
	rc.CurrentSubStep = subStepName
	rc.CurrentSubStepStart = time.Now()

	log.Printf("[%s]    ├─ %s...", rc.RequestID, subStepName)
}

// EndSubStep completes the current sub-step and records timing
func (rc *RequestContext) EndSubStep(details string) {
	if rc.CurrentSubStep == "" {
		return
	}

	duration := time.Since(rc.CurrentSubStepStart).Milliseconds()

	subStepLog := SubStepLog{
		Name:      rc.CurrentSubStep,
		StartTime: rc.CurrentSubStepStart,
		Duration:  duration,
		Details:   details,
	}

	rc.CurrentSubSteps = append(rc.CurrentSubSteps, subStepLog)

	detailsMsg := ""
	if details != "" {
		detailsMsg = " | " + details
	}
	log.Printf("[%s]    └─ ✅ %.2fs%s",
		rc.RequestID, float64(duration)/1000, detailsMsg)

	rc.CurrentSubStep = ""
}

// LogInfo logs info-level message with request ID prefix
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ℹ️  %s", rc.RequestID, msg)
}

// LogWarning logs warning-level message with request ID prefix
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ⚠️  %s", rc.RequestID, msg)
}

// LogError logs error-level message with request ID prefix
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ❌ %s", rc.RequestID, msg)
}

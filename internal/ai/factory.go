// factory.go - Vision provider factory

package ai

import (
	"fmt"

	"github.com/wilksmax/pokervision/configs"
)

// CreateVisionProvider creates the provider selected by configuration
func CreateVisionProvider() (Provider, error) {
	switch configs.VISION_PROVIDER {
	case "gemini":
		return NewGeminiProvider(), nil
	case "openai":
		return NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s (supported: gemini, openai)", configs.VISION_PROVIDER)
	}
}

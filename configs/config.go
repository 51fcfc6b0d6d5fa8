// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	// Provider selection: "gemini" (default) or "openai"
	VISION_PROVIDER string

	// Gemini configuration
	GEMINI_API_KEY string

	// OpenAI-compatible configuration (any Responses-style endpoint)
	OPENAI_API_KEY  string
	OPENAI_API_BASE string

	// Model selection per pipeline stage
	EXTRACTION_MODEL_NAME string // vision model used for table-state extraction
	CHECK_MODEL_NAME      string // cheaper model used for the self-check pass
	STRATEGY_MODEL_NAME   string // model used for the strategy recommendation

	// Pipeline behavior
	STRICT_EXTRACTION bool // schema-constrained extraction before the loose fallback
	ENABLE_SELF_CHECK bool // run the corrective self-check round-trip

	// Per-call timeouts in seconds. Each model call gets its own deadline
	// instead of inheriting whatever the transport defaults to.
	EXTRACTION_TIMEOUT int
	SELF_CHECK_TIMEOUT int
	STRATEGY_TIMEOUT   int

	// Pricing per 1M tokens in USD, per stage model
	EXTRACTION_INPUT_PRICE_PER_MILLION  float64
	EXTRACTION_OUTPUT_PRICE_PER_MILLION float64
	CHECK_INPUT_PRICE_PER_MILLION       float64
	CHECK_OUTPUT_PRICE_PER_MILLION      float64
	STRATEGY_INPUT_PRICE_PER_MILLION    float64
	STRATEGY_OUTPUT_PRICE_PER_MILLION   float64

	// Server configuration
	PORT                  string
	UPLOAD_DIR            string
	ALLOWED_ORIGINS       string
	RATE_LIMIT_PER_MINUTE int // analyze requests allowed per minute

	// Screenshot preparation
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	VISION_PROVIDER = getEnv("VISION_PROVIDER", "gemini")

	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	OPENAI_API_KEY = getEnv("OPENAI_API_KEY", "")
	OPENAI_API_BASE = getEnv("OPENAI_API_BASE", "https://api.openai.com/v1")

	// The selected provider needs its key
	switch VISION_PROVIDER {
	case "gemini":
		if GEMINI_API_KEY == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when VISION_PROVIDER=gemini")
		}
	case "openai":
		if OPENAI_API_KEY == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when VISION_PROVIDER=openai")
		}
	default:
		log.Fatalf("Unsupported VISION_PROVIDER: %s (supported: gemini, openai)", VISION_PROVIDER)
	}

	EXTRACTION_MODEL_NAME = getEnv("EXTRACTION_MODEL_NAME", "gemini-2.5-flash")
	CHECK_MODEL_NAME = getEnv("CHECK_MODEL_NAME", "gemini-2.5-flash-lite")
	STRATEGY_MODEL_NAME = getEnv("STRATEGY_MODEL_NAME", "gemini-2.5-flash")

	STRICT_EXTRACTION = getEnvBool("STRICT_EXTRACTION", true)
	ENABLE_SELF_CHECK = getEnvBool("ENABLE_SELF_CHECK", true)

	EXTRACTION_TIMEOUT = getEnvInt("EXTRACTION_TIMEOUT_SEC", 45)
	SELF_CHECK_TIMEOUT = getEnvInt("SELF_CHECK_TIMEOUT_SEC", 30)
	STRATEGY_TIMEOUT = getEnvInt("STRATEGY_TIMEOUT_SEC", 45)

	// Defaults follow Flash / Flash-Lite pricing
	EXTRACTION_INPUT_PRICE_PER_MILLION = getEnvFloat("EXTRACTION_INPUT_PRICE_PER_MILLION", 0.30)
	EXTRACTION_OUTPUT_PRICE_PER_MILLION = getEnvFloat("EXTRACTION_OUTPUT_PRICE_PER_MILLION", 2.50)
	CHECK_INPUT_PRICE_PER_MILLION = getEnvFloat("CHECK_INPUT_PRICE_PER_MILLION", 0.10)
	CHECK_OUTPUT_PRICE_PER_MILLION = getEnvFloat("CHECK_OUTPUT_PRICE_PER_MILLION", 0.40)
	STRATEGY_INPUT_PRICE_PER_MILLION = getEnvFloat("STRATEGY_INPUT_PRICE_PER_MILLION", 0.30)
	STRATEGY_OUTPUT_PRICE_PER_MILLION = getEnvFloat("STRATEGY_OUTPUT_PRICE_PER_MILLION", 2.50)

	PORT = getEnv("PORT", "8080")
	UPLOAD_DIR = getEnv("UPLOAD_DIR", "uploads")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	RATE_LIMIT_PER_MINUTE = getEnvInt("RATE_LIMIT_PER_MINUTE", 30)

	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 1600)

	log.Println("✓ Configuration loaded successfully")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

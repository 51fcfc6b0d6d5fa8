// main.go - Application entry point

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/ai"
	"github.com/wilksmax/pokervision/internal/api"
	"github.com/wilksmax/pokervision/internal/ratelimit"
)

func main() {
	configs.LoadConfig()

	if err := os.MkdirAll(configs.UPLOAD_DIR, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	provider, err := ai.CreateVisionProvider()
	if err != nil {
		log.Fatalf("Failed to create vision provider: %v", err)
	}
	log.Printf("✓ Vision provider: %s", provider.Name())

	server := api.NewServer(provider)

	router := gin.Default()
	router.Use(corsMiddleware())
	router.MaxMultipartMemory = 16 << 20 // 16 MB

	// Analysis burns model tokens per call, so the endpoint is rate limited.
	limiter := ratelimit.NewRateLimiter(configs.RATE_LIMIT_PER_MINUTE, time.Minute)

	router.GET("/health", api.HealthHandler)
	router.POST("/api/analyze", limiter.Middleware(), server.AnalyzeTableHandler)

	srv := &http.Server{
		Addr:    ":" + configs.PORT,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", configs.PORT)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown: let in-flight analyses finish before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

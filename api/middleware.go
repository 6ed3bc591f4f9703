package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tadeyemo32/prospect-backend/logger"
)

// BackendKeyHeader carries the shared key when BACKEND_API_KEY is set.
const BackendKeyHeader = "X-Backend-Key"

// CORSMiddleware allows the browser UI on any origin.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With", BackendKeyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// BackendKeyMiddleware rejects requests without the shared backend key. An
// empty expected key disables the check.
func BackendKeyMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected != "" && c.GetHeader(BackendKeyHeader) != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid backend access key"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request, at a level chosen by status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start).String(),
		}
		if c.FullPath() == "" {
			kv[3] = c.Request.URL.Path
		}
		switch {
		case status >= 500:
			log.Error("Request failed", kv...)
		case status >= 400:
			log.Warn("Request rejected", kv...)
		default:
			log.Info("Request handled", kv...)
		}
	}
}

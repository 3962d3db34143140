package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ytdlapi/internal/core/domain"
)

const requestIDHeader = "X-Request-ID"

// RequestID echoes or assigns an X-Request-ID and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(domain.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logging writes one line when a request starts and one when it ends.
func Logging(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := domain.RequestIDFromContext(c.Request.Context())
		logger.Printf("START %s %s request_id=%s", c.Request.Method, c.Request.URL.Path, requestID)
		c.Next()
		logger.Printf("END %s %s status=%d request_id=%s duration=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), requestID, time.Since(start))
	}
}

// Recovery turns panics into a JSON 500.
func Recovery(logger *log.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(logger.Writer(), func(c *gin.Context, recovered any) {
		logger.Printf("[PANIC] request_id=%s: %v", domain.RequestIDFromContext(c.Request.Context()), recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Detail: "Internal Server Error"})
	})
}

// AllowAllOrigins permits every origin, method and header.
func AllowAllOrigins() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Disposition", "Content-Length", requestIDHeader},
		MaxAge:          12 * time.Hour,
	})
}

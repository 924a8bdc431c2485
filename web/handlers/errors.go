package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the underlying error with its context fields and sends
// the caller a generic message; internals never leak onto the wire.
func respondWithError(c *gin.Context, statusCode int, err error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields,
			zap.String("path", c.FullPath()),
			zap.Error(err))
		logger.Error("Request failed", fields...)
	}
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError sends a validation-style error without logging.
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

package utils

import "github.com/gin-gonic/gin"

// Error writes the minimal JSON error body used across the API.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ErrorWithDetails writes an error body with a details field, used for
// storage failures where the underlying message is passed through.
func ErrorWithDetails(c *gin.Context, status int, message, details string) {
	c.JSON(status, gin.H{"error": message, "details": details})
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/NEhIL06/Ecosap/utils"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID 透传或生成请求ID，并写回响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = utils.NewRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 返回当前请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

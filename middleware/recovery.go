package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/utils"
)

// Recovery 捕获 panic，记录堆栈并返回统一的 500 响应，堆栈不会返回给调用方
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		utils.Logger.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"))

		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ServerErrorResponse{
			Success: false,
			Error:   fmt.Sprint(recovered),
			Details: "Internal processing error occurred",
		})
	})
}

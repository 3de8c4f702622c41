package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/inference"
	"github.com/NEhIL06/Ecosap/middleware"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/service"
	"github.com/NEhIL06/Ecosap/utils"
)

const (
	msgNotImage        = "File must be an image"
	msgFileRequired    = "File is required"
	msgFileTooLarge    = "File exceeds maximum upload size"
	msgInternalDetails = "Internal processing error occurred"
)

// formOverhead 请求体上限在文件上限之外为 multipart 边界和表单字段预留的字节数
const formOverhead = 64 << 10

// upload 已校验的上传内容
type upload struct {
	data []byte
	gsd  float64
}

// readUpload 读取 file 与 gsd 字段，校验失败时已写出响应并返回 false
//
// 请求体在解析时即受 upload.max_size 限制；内容类型校验在读取文件和推理之前完成。
func readUpload(c *gin.Context, cfg *config.Config) (*upload, bool) {
	if cfg.Upload.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.Upload.MaxSize+formOverhead)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Logger.Warn("upload body too large",
				zap.String("request_id", middleware.GetRequestID(c)), zap.Int64("limit", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: msgFileTooLarge})
			return nil, false
		}
		utils.Logger.Warn("failed to get uploaded file",
			zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgFileRequired})
		return nil, false
	}

	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgNotImage})
		return nil, false
	}

	gsd, err := service.ParseGSD(c.PostForm("gsd"), cfg.Measure.DefaultGSD)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: service.ErrInvalidGSD.Error()})
		return nil, false
	}

	if cfg.Upload.MaxSize > 0 && file.Size > cfg.Upload.MaxSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: msgFileTooLarge})
		return nil, false
	}

	f, err := file.Open()
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		serverError(c, err)
		return nil, false
	}

	utils.Logger.Info("file uploaded",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.Float64("gsd", gsd))

	return &upload{data: data, gsd: gsd}, true
}

// analysisError 推理排队超时返回 503，其余按 500 处理
func analysisError(c *gin.Context, err error) {
	if errors.Is(err, inference.ErrQueueTimeout) {
		utils.Logger.Warn("inference queue timeout",
			zap.String("request_id", middleware.GetRequestID(c)))
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: err.Error()})
		return
	}
	serverError(c, err)
}

// serverError 记录完整错误并返回统一的 500 响应
func serverError(c *gin.Context, err error) {
	utils.Logger.Error("failed to process image",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, model.ServerErrorResponse{
		Success: false,
		Error:   err.Error(),
		Details: msgInternalDetails,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NEhIL06/Ecosap/inference"
	"github.com/NEhIL06/Ecosap/model"
)

const serviceName = "Tree Crown Analyzer"

// BuildInfo 构建信息，由 main 通过 ldflags 注入
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	BuildID   string `json:"build_id"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
}

type StatusHandler struct {
	segmenter inference.Segmenter
	build     BuildInfo
}

func NewStatusHandler(segmenter inference.Segmenter, build BuildInfo) *StatusHandler {
	return &StatusHandler{segmenter: segmenter, build: build}
}

// Root 服务状态与接口说明
func (h *StatusHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.StatusResponse{
		Status:  "online",
		Service: serviceName,
		Model:   h.segmenter.ModelPath(),
		Endpoints: map[string]string{
			"/area":      "POST - Analyze tree crown images",
			"/area/:md5": "GET - Re-measure a cached image with another GSD",
			"/credits":   "POST - Estimate eco-credits from tree crown area",
			"/health":    "GET - Model health check",
		},
	})
}

// Health 模型加载状态，未加载时返回 503
func (h *StatusHandler) Health(c *gin.Context) {
	resp := model.HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.segmenter.Loaded(),
		ModelPath:   h.segmenter.ModelPath(),
	}
	if !resp.ModelLoaded {
		resp.Status = "unhealthy"
		resp.Error = inference.ErrNotLoaded.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StatusHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

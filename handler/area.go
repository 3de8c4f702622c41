package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/service"
	"github.com/NEhIL06/Ecosap/utils"
)

type AreaHandler struct {
	cfg      *config.Config
	analyzer *service.Analyzer
}

func NewAreaHandler(cfg *config.Config, analyzer *service.Analyzer) *AreaHandler {
	return &AreaHandler{
		cfg:      cfg,
		analyzer: analyzer,
	}
}

// Analyze 上传图像并计算树冠面积
func (h *AreaHandler) Analyze(c *gin.Context) {
	up, ok := readUpload(c, h.cfg)
	if !ok {
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), up.data, up.gsd)
	if err != nil {
		analysisError(c, err)
		return
	}

	respondAnalysis(c, result)
}

// GetByMD5 按新的 GSD 重新测量已缓存的图像
func (h *AreaHandler) GetByMD5(c *gin.Context) {
	md5 := c.Param("md5")
	if !utils.IsMD5(md5) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid image MD5"})
		return
	}

	gsd, err := service.ParseGSD(c.Query("gsd"), h.cfg.Measure.DefaultGSD)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.analyzer.Remeasure(c.Request.Context(), md5, gsd)
	switch {
	case errors.Is(err, service.ErrCacheDisabled):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "Detection cache is disabled"})
		return
	case errors.Is(err, service.ErrCacheMiss):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "No cached detections for this image"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	respondAnalysis(c, result)
}

func respondAnalysis(c *gin.Context, result *model.AnalysisResult) {
	if result.TotalTrees == 0 {
		c.JSON(http.StatusOK, model.NewNoTreesResponse(result.GSD))
		return
	}

	c.JSON(http.StatusOK, model.AreaResponse{
		Success:        true,
		AnalysisResult: result,
	})
}

package handler

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/middleware"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/service"
	"github.com/NEhIL06/Ecosap/utils"
)

type CreditsHandler struct {
	cfg      *config.Config
	analyzer *service.Analyzer
}

func NewCreditsHandler(cfg *config.Config, analyzer *service.Analyzer) *CreditsHandler {
	return &CreditsHandler{
		cfg:      cfg,
		analyzer: analyzer,
	}
}

// Estimate 分析图像并按树冠总面积估算生态积分
//
// 上传先于表单因子解析，使请求体大小限制在首次解析前生效。
func (h *CreditsHandler) Estimate(c *gin.Context) {
	up, ok := readUpload(c, h.cfg)
	if !ok {
		return
	}

	factors, err := parseCreditFactors(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), up.data, up.gsd)
	if err != nil {
		analysisError(c, err)
		return
	}

	if result.TotalTrees == 0 || result.TotalAreaM2 <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid area calculation received"})
		return
	}

	credits := service.CalculateCredits(result.TotalAreaM2, up.gsd, factors)

	utils.Logger.Info("credits estimated",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Float64("area_m2", result.TotalAreaM2),
		zap.Int("credits", credits))

	c.JSON(http.StatusOK, model.CreditsResponse{
		Success:     true,
		TotalTrees:  result.TotalTrees,
		TotalAreaM2: result.TotalAreaM2,
		GSD:         up.gsd,
		Credits:     credits,
		Message:     fmt.Sprintf("Estimated %d credits based on area %.2f m²", credits, result.TotalAreaM2),
	})
}

func parseCreditFactors(c *gin.Context) (service.CreditFactors, error) {
	var factors service.CreditFactors
	var err error

	if factors.VegetationDensity, err = optionalFloat(c, "vegetation_density"); err != nil {
		return factors, err
	}
	if factors.VegetationDensity < 0 || factors.VegetationDensity > 1 {
		return factors, fmt.Errorf("vegetation_density must be between 0 and 1")
	}
	if factors.PreviousArea, err = optionalFloat(c, "previous_area"); err != nil {
		return factors, err
	}
	if factors.LocationMultiplier, err = optionalFloat(c, "location_multiplier"); err != nil {
		return factors, err
	}
	factors.TreeSpecies = strings.TrimSpace(c.PostForm("tree_species"))

	return factors, nil
}

func optionalFloat(c *gin.Context, field string) (float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", field)
	}
	return v, nil
}

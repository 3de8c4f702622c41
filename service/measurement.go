package service

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/NEhIL06/Ecosap/model"
)

// Measure 将掩码序列换算为实际面积、等效直径与周长
//
// 每个掩码视为面积相同的圆。汇总值使用未取整的单项值求和，最后统一保留两位小数。
func Measure(masks []*model.Mask, gsd float64) *model.AnalysisResult {
	areas := make([]int, len(masks))
	for i, m := range masks {
		areas[i] = m.Area()
	}
	return MeasureAreas(areas, gsd)
}

// MeasureAreas 与 Measure 相同，但直接接受像素面积
func MeasureAreas(areasPx []int, gsd float64) *model.AnalysisResult {
	result := &model.AnalysisResult{
		GSD:   gsd,
		Trees: make([]model.TreeMeasurement, 0, len(areasPx)),
	}

	areas := make([]float64, len(areasPx))
	circumferences := make([]float64, len(areasPx))
	for i, px := range areasPx {
		areaM2 := float64(px) * (gsd * gsd)
		diameter := 2 * math.Sqrt(areaM2/math.Pi)
		circumference := math.Pi * diameter

		areas[i] = areaM2
		circumferences[i] = circumference

		result.Trees = append(result.Trees, model.TreeMeasurement{
			TreeID:         i + 1,
			AreaM2:         round2(areaM2),
			AreaPx:         px,
			DiameterM:      round2(diameter),
			CircumferenceM: round2(circumference),
		})
	}

	totalArea := floats.Sum(areas)
	result.TotalTrees = len(areasPx)
	result.TotalAreaM2 = round2(totalArea)
	result.TotalCircumferenceM = round2(floats.Sum(circumferences))
	if result.TotalTrees > 0 {
		result.AverageAreaM2 = round2(totalArea / float64(result.TotalTrees))
	}

	return result
}

// ParseGSD 解析请求中的 GSD，空值返回默认值
func ParseGSD(raw string, defaultGSD float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultGSD, nil
	}

	gsd, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(gsd) || math.IsInf(gsd, 0) || gsd <= 0 {
		return 0, ErrInvalidGSD
	}
	return gsd, nil
}

// round2 按 float64 的精确值保留两位小数，恰为中间值时取偶
//
// 不能先乘 100：乘法本身会舍入，0.405 这类值会被推到 40.5 再取偶。
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

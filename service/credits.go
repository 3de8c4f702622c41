package service

import (
	"math"
	"regexp"
	"strings"
)

// CreditFactors 积分计算的可选因子，零值表示未提供
type CreditFactors struct {
	VegetationDensity  float64 // 0-1
	PreviousArea       float64 // m², 用于计算生长率
	TreeSpecies        string
	LocationMultiplier float64
}

var speciesMultipliers = map[string]float64{
	"oak":        1.3,
	"pine":       1.25,
	"eucalyptus": 1.4,
	"mangrove":   1.5,
	"bamboo":     1.35,
	"teak":       1.2,
	"neem":       1.15,
	"fruit_tree": 1.1,
}

var whitespace = regexp.MustCompile(`\s+`)

// CalculateCredits 按树冠面积 (m²) 与 GSD 计算生态积分，最少 1 分
func CalculateCredits(area, gsd float64, factors CreditFactors) int {
	credits := baseCredits(area) * gsdMultiplier(gsd)

	if factors.VegetationDensity > 0 {
		credits *= 1 + factors.VegetationDensity*0.5
	}

	if factors.PreviousArea > 0 {
		growth := (area - factors.PreviousArea) / factors.PreviousArea
		switch {
		case growth > 0:
			credits *= 1 + math.Min(growth, 1.0)*0.3
		case growth < -0.2:
			credits *= 0.7
		}
	}

	if factors.TreeSpecies != "" {
		key := whitespace.ReplaceAllString(strings.ToLower(factors.TreeSpecies), "_")
		if m, ok := speciesMultipliers[key]; ok {
			credits *= m
		}
	}

	if factors.LocationMultiplier != 0 {
		credits *= factors.LocationMultiplier
	}

	return max(int(math.Floor(credits)), 1)
}

// baseCredits 分段计算，面积越大边际积分越低
func baseCredits(area float64) float64 {
	switch {
	case area <= 10:
		return area * 10
	case area <= 50:
		return 100 + (area-10)*8
	case area <= 100:
		return 420 + (area-50)*6
	case area <= 500:
		return 720 + (area-100)*4
	case area <= 1000:
		return 2320 + (area-500)*2
	default:
		return 3320 + math.Log10(area-999)*500
	}
}

// gsdMultiplier 分辨率越高系数越大
func gsdMultiplier(gsd float64) float64 {
	switch {
	case gsd <= 0:
		return 1.0
	case gsd <= 0.5:
		return 1.5
	case gsd <= 1.0:
		return 1.3
	case gsd <= 2.0:
		return 1.15
	case gsd <= 5.0:
		return 1.0
	default:
		return 0.8
	}
}

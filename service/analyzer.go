package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/inference"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/utils"
)

// DetectionCache 检测摘要缓存
type DetectionCache interface {
	GetDetection(ctx context.Context, key string) (*model.DetectionSummary, error)
	SetDetection(ctx context.Context, key string, summary *model.DetectionSummary) error
}

// Analyzer 解码 -> 推理 -> 测量
type Analyzer struct {
	segmenter inference.Segmenter
	cache     DetectionCache
	opts      inference.Options
}

// NewAnalyzer cache 可以为 nil，表示不使用缓存
func NewAnalyzer(segmenter inference.Segmenter, cache DetectionCache, opts inference.Options) *Analyzer {
	return &Analyzer{
		segmenter: segmenter,
		cache:     cache,
		opts:      opts,
	}
}

// Analyze 分析上传的图像
func (a *Analyzer) Analyze(ctx context.Context, data []byte, gsd float64) (*model.AnalysisResult, error) {
	md5 := utils.BytesMD5(data)

	if summary := a.lookup(ctx, md5); summary != nil {
		utils.Logger.Info("cache hit", zap.String("md5", md5), zap.Int("trees", len(summary.AreasPx)))
		return a.measureSummary(summary, gsd), nil
	}

	img, err := inference.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	start := time.Now()

	masks, err := a.segmenter.Segment(ctx, img, a.opts)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	summary := &model.DetectionSummary{
		MD5:       md5,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		AreasPx:   make([]int, len(masks)),
		Timestamp: time.Now().Unix(),
	}
	for i, m := range masks {
		summary.AreasPx[i] = m.Area()
	}

	utils.Logger.Info("image analyzed",
		zap.String("md5", md5),
		zap.Int("width", summary.Width),
		zap.Int("height", summary.Height),
		zap.Int("trees", len(masks)),
		zap.Float64("gsd", gsd),
		zap.Duration("duration", time.Since(start)))

	a.store(ctx, md5, summary)

	result := Measure(masks, gsd)
	result.ImageDimensions = model.ImageDimensions{Width: summary.Width, Height: summary.Height}
	if a.cache != nil {
		result.ImageMD5 = md5
	}
	return result, nil
}

// Remeasure 使用缓存的检测结果按新的 GSD 重新测量
func (a *Analyzer) Remeasure(ctx context.Context, md5 string, gsd float64) (*model.AnalysisResult, error) {
	if a.cache == nil {
		return nil, ErrCacheDisabled
	}

	summary, err := a.cache.GetDetection(ctx, a.cacheKey(md5))
	if err != nil {
		return nil, fmt.Errorf("failed to read detection cache: %w", err)
	}
	if summary == nil {
		return nil, ErrCacheMiss
	}

	return a.measureSummary(summary, gsd), nil
}

// Segmenter 返回底层推理适配器
func (a *Analyzer) Segmenter() inference.Segmenter {
	return a.segmenter
}

func (a *Analyzer) measureSummary(summary *model.DetectionSummary, gsd float64) *model.AnalysisResult {
	result := MeasureAreas(summary.AreasPx, gsd)
	result.ImageDimensions = model.ImageDimensions{Width: summary.Width, Height: summary.Height}
	result.ImageMD5 = summary.MD5
	return result
}

func (a *Analyzer) lookup(ctx context.Context, md5 string) *model.DetectionSummary {
	if a.cache == nil {
		return nil
	}
	summary, err := a.cache.GetDetection(ctx, a.cacheKey(md5))
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.String("md5", md5), zap.Error(err))
		return nil
	}
	return summary
}

func (a *Analyzer) store(ctx context.Context, md5 string, summary *model.DetectionSummary) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetDetection(ctx, a.cacheKey(md5), summary); err != nil {
		utils.Logger.Warn("failed to set cache", zap.String("md5", md5), zap.Error(err))
	}
}

// cacheKey 推理参数不同的结果分开缓存
func (a *Analyzer) cacheKey(md5 string) string {
	return fmt.Sprintf("%s:c%g:s%d", md5, a.opts.Confidence, a.opts.ImageSize)
}

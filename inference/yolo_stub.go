//go:build !gocv
// +build !gocv

package inference

import (
	"context"
	"errors"
	"image"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/model"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// YOLOSegmenter 未启用 OpenCV 时的占位实现
type YOLOSegmenter struct{}

// NewYOLOSegmenter 在未启用 gocv 构建标签时总是返回错误
func NewYOLOSegmenter(_ *config.InferenceConfig) (*YOLOSegmenter, error) {
	return nil, errGoCVDisabled
}

func (s *YOLOSegmenter) Segment(ctx context.Context, img image.Image, opts Options) ([]*model.Mask, error) {
	return nil, errors.Join(ErrNotLoaded, errGoCVDisabled)
}

func (s *YOLOSegmenter) Loaded() bool      { return false }
func (s *YOLOSegmenter) ModelPath() string { return "" }
func (s *YOLOSegmenter) Close() error      { return nil }

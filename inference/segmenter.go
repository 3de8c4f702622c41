// Package inference 封装树冠实例分割模型。
//
// 模型对调用方是黑盒：输入一幅图像，输出覆盖源图像像素网格的二值掩码。
// 前处理（letterbox、张量化）与后处理（候选框解码、NMS、原型掩码合成）
// 为纯 Go 实现，只有网络前向依赖 OpenCV（构建标签 gocv）。
package inference

import (
	"context"
	"errors"
	"image"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/model"
)

var (
	ErrNotLoaded    = errors.New("segmentation model is not loaded")
	ErrQueueTimeout = errors.New("inference queue is full, please retry later")
)

// Options 单次推理参数
type Options struct {
	Confidence    float32
	IoU           float32
	ImageSize     int
	MaxDetections int
}

// DefaultOptions 返回默认推理参数
func DefaultOptions() Options {
	return Options{
		Confidence:    0.25,
		IoU:           0.7,
		ImageSize:     1024,
		MaxDetections: 300,
	}
}

// OptionsFromConfig 由配置生成推理参数
func OptionsFromConfig(cfg *config.InferenceConfig) Options {
	return Options{
		Confidence:    float32(cfg.Confidence),
		IoU:           float32(cfg.IoU),
		ImageSize:     cfg.ImageSize,
		MaxDetections: cfg.MaxDetections,
	}
}

// Segmenter 图像 -> 掩码
//
// 实现必须支持并发调用。
type Segmenter interface {
	Segment(ctx context.Context, img image.Image, opts Options) ([]*model.Mask, error)
	Loaded() bool
	ModelPath() string
	Close() error
}

type unavailable struct {
	modelPath string
	reason    error
}

// Unavailable 返回一个未加载模型的 Segmenter，每次调用都返回 ErrNotLoaded
func Unavailable(modelPath string, reason error) Segmenter {
	return &unavailable{modelPath: modelPath, reason: reason}
}

func (u *unavailable) Segment(ctx context.Context, img image.Image, opts Options) ([]*model.Mask, error) {
	if u.reason != nil {
		return nil, errors.Join(ErrNotLoaded, u.reason)
	}
	return nil, ErrNotLoaded
}

func (u *unavailable) Loaded() bool      { return false }
func (u *unavailable) ModelPath() string { return u.modelPath }
func (u *unavailable) Close() error      { return nil }

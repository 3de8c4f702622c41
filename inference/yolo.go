//go:build gocv
// +build gocv

package inference

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/utils"
)

// YOLOSegmenter 基于 OpenCV DNN 的 YOLOv8-seg ONNX 推理
//
// gocv.Net 的 SetInput/Forward 不是并发安全的，因此每个 worker 持有独立的网络，
// 通过 channel 借出和归还。
type YOLOSegmenter struct {
	modelPath    string
	outputNames  []string
	queueTimeout time.Duration
	nets         chan *gocv.Net
	all          []*gocv.Net
	loaded       atomic.Bool
	closeOnce    sync.Once
}

// NewYOLOSegmenter 加载模型，workers 个网络各自独立加载
func NewYOLOSegmenter(cfg *config.InferenceConfig) (*YOLOSegmenter, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", cfg.ModelPath, err)
	}
	if len(cfg.OutputNames) != 2 {
		return nil, fmt.Errorf("expected 2 output names (predictions, prototypes), got %v", cfg.OutputNames)
	}

	workers := max(1, cfg.Workers)
	s := &YOLOSegmenter{
		modelPath:    cfg.ModelPath,
		outputNames:  cfg.OutputNames,
		queueTimeout: cfg.QueueTimeout,
		nets:         make(chan *gocv.Net, workers),
	}

	for i := 0; i < workers; i++ {
		net := gocv.ReadNetFromONNX(cfg.ModelPath)
		if net.Empty() {
			s.Close()
			return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
		}
		if err := net.SetPreferableBackend(gocv.ParseNetBackend(cfg.Backend)); err != nil {
			net.Close()
			s.Close()
			return nil, fmt.Errorf("failed to set backend %q: %w", cfg.Backend, err)
		}
		if err := net.SetPreferableTarget(gocv.ParseNetTarget(cfg.Target)); err != nil {
			net.Close()
			s.Close()
			return nil, fmt.Errorf("failed to set target %q: %w", cfg.Target, err)
		}
		s.all = append(s.all, &net)
		s.nets <- &net
	}

	s.loaded.Store(true)

	utils.Logger.Info("segmentation model loaded",
		zap.String("model_path", cfg.ModelPath),
		zap.Int("workers", workers),
		zap.String("backend", cfg.Backend),
		zap.String("target", cfg.Target))

	return s, nil
}

func (s *YOLOSegmenter) Loaded() bool      { return s.loaded.Load() }
func (s *YOLOSegmenter) ModelPath() string { return s.modelPath }

// Segment 执行一次推理
func (s *YOLOSegmenter) Segment(ctx context.Context, img image.Image, opts Options) ([]*model.Mask, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}

	waitCtx := ctx
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	var net *gocv.Net
	select {
	case net = <-s.nets:
		defer func() { s.nets <- net }()
	case <-waitCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, ErrQueueTimeout
	}

	start := time.Now()
	size := opts.ImageSize
	tensor, lb := Preprocess(img, size)

	blob, err := gocv.NewMatWithSizesFromBytes([]int{1, 3, size, size}, gocv.MatTypeCV32F, float32Bytes(tensor))
	if err != nil {
		return nil, fmt.Errorf("failed to build input blob: %w", err)
	}
	defer blob.Close()

	net.SetInput(blob, "")
	outputs := net.ForwardLayers(s.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()
	if len(outputs) != 2 {
		return nil, fmt.Errorf("expected 2 network outputs, got %d", len(outputs))
	}

	predSize := outputs[0].Size()
	protoSize := outputs[1].Size()
	if len(predSize) != 3 || len(protoSize) != 4 {
		return nil, fmt.Errorf("unexpected output shapes %v and %v", predSize, protoSize)
	}

	pred, err := outputs[0].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	protoData, err := outputs[1].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read prototypes: %w", err)
	}

	protos := Prototypes{
		Data:     protoData,
		Channels: protoSize[1],
		Height:   protoSize[2],
		Width:    protoSize[3],
	}

	dets := DecodePredictions(pred, predSize[1], predSize[2], protos.Channels, opts.Confidence)
	dets = NonMaxSuppression(dets, float64(opts.IoU), opts.MaxDetections)
	masks := DecodeMasks(dets, protos, lb)

	utils.Logger.Debug("inference finished",
		zap.Int("width", lb.SrcWidth),
		zap.Int("height", lb.SrcHeight),
		zap.Int("detections", len(masks)),
		zap.Duration("duration", time.Since(start)))

	return masks, nil
}

// Close 停止接受新请求，等待借出的网络归还后逐个释放
func (s *YOLOSegmenter) Close() error {
	s.closeOnce.Do(func() {
		s.loaded.Store(false)
		for range s.all {
			net := <-s.nets
			net.Close()
		}
	})
	return nil
}

func float32Bytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

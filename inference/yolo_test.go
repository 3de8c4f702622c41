//go:build gocv
// +build gocv

package inference

import (
	"context"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/NEhIL06/Ecosap/config"
)

func TestYOLOSegmenter_CloseWhileServing(t *testing.T) {
	s := &YOLOSegmenter{modelPath: "weights/test.onnx", nets: make(chan *gocv.Net)}
	s.loaded.Store(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = s.Loaded()
			}
		}()
	}
	require.NoError(t, s.Close())
	wg.Wait()

	require.False(t, s.Loaded())
	require.NoError(t, s.Close())

	_, err := s.Segment(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), DefaultOptions())
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestNewYOLOSegmenter_MissingModel(t *testing.T) {
	_, err := NewYOLOSegmenter(&config.InferenceConfig{
		ModelPath:   "weights/does-not-exist.onnx",
		OutputNames: []string{"output0", "output1"},
	})
	require.Error(t, err)
}

func TestFloat32Bytes(t *testing.T) {
	require.Equal(t, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0}, float32Bytes([]float32{1, 0}))
}

package inference

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NEhIL06/Ecosap/config"
)

func TestUnavailable(t *testing.T) {
	reason := errors.New("file not found")
	seg := Unavailable("weights/missing.onnx", reason)

	require.False(t, seg.Loaded())
	require.Equal(t, "weights/missing.onnx", seg.ModelPath())
	require.NoError(t, seg.Close())

	_, err := seg.Segment(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)), DefaultOptions())
	require.ErrorIs(t, err, ErrNotLoaded)
	require.ErrorIs(t, err, reason)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(&config.InferenceConfig{
		Confidence:    0.4,
		IoU:           0.6,
		ImageSize:     640,
		MaxDetections: 100,
	})

	require.InDelta(t, 0.4, opts.Confidence, 1e-6)
	require.InDelta(t, 0.6, opts.IoU, 1e-6)
	require.Equal(t, 640, opts.ImageSize)
	require.Equal(t, 100, opts.MaxDetections)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 1024, opts.ImageSize)
	require.Equal(t, 300, opts.MaxDetections)
	require.InDelta(t, 0.25, opts.Confidence, 1e-6)
	require.InDelta(t, 0.7, opts.IoU, 1e-6)
}

func TestDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 7))
	img.Set(3, 3, color.RGBA{R: 200, A: 255})

	var pngBuf, jpgBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	require.NoError(t, jpeg.Encode(&jpgBuf, img, nil))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpgBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			decoded, err := Decode(bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, 12, decoded.Bounds().Dx())
			require.Equal(t, 7, decoded.Bounds().Dy())
		})
	}
}

// withOrientation 在 SOI 之后插入只含 Orientation 标签的 APP1 段
func withOrientation(jpg []byte, orientation byte) []byte {
	exif := []byte{
		'E', 'x', 'i', 'f', 0, 0,
		'I', 'I', 0x2a, 0, 8, 0, 0, 0,
		1, 0,
		0x12, 0x01, 3, 0, 1, 0, 0, 0, orientation, 0, 0, 0,
		0, 0, 0, 0,
	}
	segLen := len(exif) + 2

	out := make([]byte, 0, len(jpg)+len(exif)+4)
	out = append(out, jpg[:2]...)
	out = append(out, 0xff, 0xe1, byte(segLen>>8), byte(segLen))
	out = append(out, exif...)
	return append(out, jpg[2:]...)
}

func TestDecode_IgnoresEXIFOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 7))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	// 6 = 顺时针旋转 90°
	decoded, err := Decode(bytes.NewReader(withOrientation(buf.Bytes(), 6)))
	require.NoError(t, err)
	require.Equal(t, 12, decoded.Bounds().Dx())
	require.Equal(t, 7, decoded.Bounds().Dy())
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("plain text")))
	require.Error(t, err)
}

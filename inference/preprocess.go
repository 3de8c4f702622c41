package inference

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// padValue letterbox 填充灰度值
const padValue = 114

// Letterbox 描述源图像到正方形网络输入的等比缩放与居中填充
type Letterbox struct {
	Size      int
	Scale     float64
	PadX      int
	PadY      int
	NewWidth  int
	NewHeight int
	SrcWidth  int
	SrcHeight int
}

// NewLetterbox 计算 srcW x srcH 缩放到 size x size 的参数
func NewLetterbox(srcW, srcH, size int) Letterbox {
	scale := math.Min(float64(size)/float64(srcW), float64(size)/float64(srcH))
	newW := max(1, min(size, int(math.Round(float64(srcW)*scale))))
	newH := max(1, min(size, int(math.Round(float64(srcH)*scale))))

	return Letterbox{
		Size:      size,
		Scale:     scale,
		PadX:      (size - newW) / 2,
		PadY:      (size - newH) / 2,
		NewWidth:  newW,
		NewHeight: newH,
		SrcWidth:  srcW,
		SrcHeight: srcH,
	}
}

// ToInput 源图像坐标 -> 网络输入坐标
func (lb Letterbox) ToInput(x, y float64) (float64, float64) {
	return x*lb.Scale + float64(lb.PadX), y*lb.Scale + float64(lb.PadY)
}

// ToSource 网络输入坐标 -> 源图像坐标
func (lb Letterbox) ToSource(x, y float64) (float64, float64) {
	return (x - float64(lb.PadX)) / lb.Scale, (y - float64(lb.PadY)) / lb.Scale
}

// Preprocess 将图像 letterbox 到 size x size，并生成 NCHW 排列、RGB、归一化到 [0,1] 的张量
func Preprocess(img image.Image, size int) ([]float32, Letterbox) {
	b := img.Bounds()
	lb := NewLetterbox(b.Dx(), b.Dy(), size)

	resized := imaging.Resize(img, lb.NewWidth, lb.NewHeight, imaging.Linear)
	canvas := imaging.New(size, size, color.NRGBA{R: padValue, G: padValue, B: padValue, A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(lb.PadX, lb.PadY))

	plane := size * size
	tensor := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := canvas.Pix[canvas.PixOffset(x, y):]
			i := y*size + x
			tensor[i] = float32(p[0]) / 255
			tensor[plane+i] = float32(p[1]) / 255
			tensor[2*plane+i] = float32(p[2]) / 255
		}
	}

	return tensor, lb
}

package inference

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/NEhIL06/Ecosap/model"
)

// maskThreshold 掩码概率阈值
const maskThreshold = 0.5

// Box 网络输入坐标系下的边界框 (x1, y1, x2, y2)
type Box struct {
	X1, Y1, X2, Y2 float64
}

func (b Box) Area() float64 {
	return math.Max(0, b.X2-b.X1) * math.Max(0, b.Y2-b.Y1)
}

// IoU 交并比
func IoU(a, b Box) float64 {
	w := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	h := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	inter := w * h
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection 一个候选实例
type Detection struct {
	Box    Box
	Score  float32
	Class  int
	Coeffs []float32
}

// DecodePredictions 解析 [1, 4+nc+nm, anchors] 的预测张量
//
// 每列依次为 cx, cy, w, h、nc 个类别分数、nm 个掩码系数。
// 只保留最高类别分数严格大于 conf 的列。
func DecodePredictions(pred []float32, channels, anchors, numMasks int, conf float32) []Detection {
	numClasses := channels - 4 - numMasks
	if numClasses <= 0 || anchors <= 0 || len(pred) < channels*anchors {
		return nil
	}

	at := func(row, col int) float32 { return pred[row*anchors+col] }

	var dets []Detection
	for j := 0; j < anchors; j++ {
		best, cls := float32(-1), -1
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, j); s > best {
				best, cls = s, c
			}
		}
		if best <= conf {
			continue
		}

		cx, cy := float64(at(0, j)), float64(at(1, j))
		w, h := float64(at(2, j)), float64(at(3, j))

		coeffs := make([]float32, numMasks)
		for k := range coeffs {
			coeffs[k] = at(4+numClasses+k, j)
		}

		dets = append(dets, Detection{
			Box:    Box{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2},
			Score:  best,
			Class:  cls,
			Coeffs: coeffs,
		})
	}
	return dets
}

// NonMaxSuppression 按类别做非极大值抑制，结果按分数降序，最多 maxDet 个
func NonMaxSuppression(dets []Detection, iouThreshold float64, maxDet int) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	suppressed := make([]bool, len(sorted))
	kept := make([]Detection, 0, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		if maxDet > 0 && len(kept) >= maxDet {
			break
		}
		for j := i + 1; j < len(sorted); j++ {
			if !suppressed[j] && sorted[j].Class == sorted[i].Class && IoU(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// Prototypes 原型掩码 [channels, height, width]
type Prototypes struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// DecodeMasks 合成每个实例的掩码并映射回源图像像素网格
//
// mask = sigmoid(coeffs · protos)，在原型分辨率上双线性采样，
// 框外像素置 0，概率大于 0.5 视为占用。
func DecodeMasks(dets []Detection, protos Prototypes, lb Letterbox) []*model.Mask {
	masks := make([]*model.Mask, 0, len(dets))
	plane := protos.Height * protos.Width
	if len(dets) == 0 || plane == 0 || protos.Channels == 0 || len(protos.Data) < protos.Channels*plane {
		return masks
	}

	coeffs := mat.NewDense(len(dets), protos.Channels, nil)
	for i, d := range dets {
		for k := 0; k < protos.Channels && k < len(d.Coeffs); k++ {
			coeffs.Set(i, k, float64(d.Coeffs[k]))
		}
	}
	protoData := make([]float64, protos.Channels*plane)
	for i, v := range protos.Data[:len(protoData)] {
		protoData[i] = float64(v)
	}
	var probs mat.Dense
	probs.Mul(coeffs, mat.NewDense(protos.Channels, plane, protoData))
	probs.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, &probs)

	sx := float64(protos.Width) / float64(lb.Size)
	sy := float64(protos.Height) / float64(lb.Size)
	frame := image.Rect(0, 0, lb.SrcWidth, lb.SrcHeight)

	for i, d := range dets {
		x1, y1 := lb.ToSource(d.Box.X1, d.Box.Y1)
		x2, y2 := lb.ToSource(d.Box.X2, d.Box.Y2)
		rect := image.Rect(
			int(math.Floor(x1)), int(math.Floor(y1)),
			int(math.Ceil(x2)), int(math.Ceil(y2)),
		).Intersect(frame)

		m := model.NewMask(lb.SrcWidth, lb.SrcHeight, rect)
		m.Score = d.Score
		row := probs.RawRowView(i)

		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				ix, iy := lb.ToInput(float64(x)+0.5, float64(y)+0.5)
				if ix < d.Box.X1 || ix >= d.Box.X2 || iy < d.Box.Y1 || iy >= d.Box.Y2 {
					continue
				}
				if bilinear(row, protos.Width, protos.Height, ix*sx-0.5, iy*sy-0.5) > maskThreshold {
					m.Set(x, y)
				}
			}
		}
		masks = append(masks, m)
	}
	return masks
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// bilinear 在 w x h 网格上双线性采样，越界坐标钳制到边缘
func bilinear(grid []float64, w, h int, x, y float64) float64 {
	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	top := grid[y0*w+x0]*(1-fx) + grid[y0*w+x1]*fx
	bottom := grid[y1*w+x0]*(1-fx) + grid[y1*w+x1]*fx
	return top*(1-fy) + bottom*fy
}

package model

import "image"

// Mask 单个树冠实例的二值掩码
//
// 掩码覆盖整幅源图像 (Width x Height)，只保存 Rect 范围内的像素，
// Rect 之外的像素恒为 0。
type Mask struct {
	Width  int
	Height int
	Rect   image.Rectangle
	Pix    []uint8
	Score  float32
}

// NewMask 创建一个空掩码，rect 会被裁剪到图像范围内
func NewMask(width, height int, rect image.Rectangle) *Mask {
	rect = rect.Intersect(image.Rect(0, 0, width, height))
	return &Mask{
		Width:  width,
		Height: height,
		Rect:   rect,
		Pix:    make([]uint8, rect.Dx()*rect.Dy()),
	}
}

// MaskFromGrid 由完整的 0/1 网格构建掩码，非零值视为 1
func MaskFromGrid(grid [][]uint8) *Mask {
	height := len(grid)
	width := 0
	if height > 0 {
		width = len(grid[0])
	}

	m := NewMask(width, height, image.Rect(0, 0, width, height))
	for y, row := range grid {
		for x := 0; x < width && x < len(row); x++ {
			if row[x] != 0 {
				m.Pix[y*width+x] = 1
			}
		}
	}
	return m
}

func (m *Mask) offset(x, y int) (int, bool) {
	if !image.Pt(x, y).In(m.Rect) {
		return 0, false
	}
	return (y-m.Rect.Min.Y)*m.Rect.Dx() + (x - m.Rect.Min.X), true
}

// At 返回 (x, y) 处的占用值
func (m *Mask) At(x, y int) uint8 {
	i, ok := m.offset(x, y)
	if !ok {
		return 0
	}
	return m.Pix[i]
}

// Set 标记 (x, y) 处为占用，Rect 之外的坐标被忽略
func (m *Mask) Set(x, y int) {
	if i, ok := m.offset(x, y); ok {
		m.Pix[i] = 1
	}
}

// Area 返回占用像素数
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

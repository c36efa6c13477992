package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/chaos-io/objectremover/util"
)

// DefaultRadius 送远端生成模型前的默认膨胀半径
// 经验值：足够盖住物体边缘的抗锯齿过渡和软阴影
const DefaultRadius = 30

// ErrInvalidInput 掩码无法解码、半径为负等输入错误
var ErrInvalidInput = errors.New("mask: invalid input")

// Load 读取掩码文件并转为单通道灰度图
func Load(path string) (*image.Gray, error) {
	img, err := util.OpenImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: decode mask %s: %v", ErrInvalidInput, path, err)
	}
	return ToGray(img), nil
}

// ToGray 把任意图像转为灰度图（BT.601 加权）
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			val := uint8((0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 256)
			gray.SetGray(x, y, color.Gray{Y: val})
		}
	}
	return gray
}

// Resize 最近邻缩放，掩码保持二值不引入中间灰度
func Resize(m *image.Gray, w, h int) *image.Gray {
	if m.Bounds().Dx() == w && m.Bounds().Dy() == h {
		return m
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Over, nil)
	return dst
}

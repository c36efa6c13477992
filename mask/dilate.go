package mask

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/chaos-io/objectremover/util"
)

// Dilate 圆形结构元灰度膨胀：输出像素取圆盘邻域内的最大值
// 邻域外接正方形边长 2*radius+1，越界按 0（非掩码）处理
func Dilate(m *image.Gray, radius int) (*image.Gray, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil mask", ErrInvalidInput)
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: negative radius %d", ErrInvalidInput, radius)
	}

	bounds := m.Bounds()
	out := image.NewGray(bounds)
	if radius == 0 {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				out.SetGray(x, y, m.GrayAt(x, y))
			}
		}
		return out, nil
	}

	offsets := diskOffsets(radius)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var best uint8
			for _, off := range offsets {
				// GrayAt 越界返回零值，等价于 0 填充
				if v := m.GrayAt(x+off.X, y+off.Y).Y; v > best {
					best = v
					if best == 255 {
						break
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: best})
		}
	}
	return out, nil
}

// DilateFile 读取掩码、按 radius 膨胀、写到同目录 dilated_ 前缀的 PNG
func DilateFile(maskPath string, radius int) (string, error) {
	m, err := Load(maskPath)
	if err != nil {
		return "", err
	}

	dilated, err := Dilate(m, radius)
	if err != nil {
		return "", err
	}

	dir, name := filepath.Split(maskPath)
	outPath := filepath.Join(dir, "dilated_"+name)
	if err := util.WritePNG(outPath, dilated); err != nil {
		return "", fmt.Errorf("write dilated mask: %w", err)
	}

	slog.Info("mask dilated", "radius", radius, "path", outPath)
	return outPath, nil
}

// diskOffsets 半径 r 的圆盘内所有偏移量
func diskOffsets(r int) []image.Point {
	offsets := make([]image.Point, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				offsets = append(offsets, image.Point{X: dx, Y: dy})
			}
		}
	}
	return offsets
}

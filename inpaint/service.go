package inpaint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chaos-io/objectremover/mask"
	"github.com/chaos-io/objectremover/util"
)

type Options struct {
	// DilationRadius 提交前掩码外扩的像素半径，0 表示不膨胀
	DilationRadius int
	// MaxDimension 最长边上限，>0 时提交前把原图和掩码一起缩小
	MaxDimension int
}

// Result 一次移除请求的结构化结果
type Result struct {
	Success       bool          `json:"success"`
	ObjectRemoved string        `json:"object_removed"`
	OutputPath    string        `json:"output_path"`
	InferenceTime time.Duration `json:"inference_time"`
}

// Service 物体移除编排：描述 -> 膨胀 -> 远端修补 -> 落盘
// 依赖注入，进程里构造一次后各处复用
type Service struct {
	provider Provider
	radius   int
	maxDim   int
}

func NewService(p Provider, opts *Options) *Service {
	s := &Service{provider: p, radius: mask.DefaultRadius}
	if opts != nil {
		s.radius = opts.DilationRadius
		s.maxDim = opts.MaxDimension
	}
	return s
}

// Remove 从 imagePath 指定的图里移除 maskPath 标记的物体
// outputPath 为空时写到原图同目录的 result_ 前缀文件，返回最终输出路径
func (s *Service) Remove(ctx context.Context, imagePath, maskPath, objectName, outputPath string) (string, *Result, error) {
	defer util.Trace("remove object")()

	start := time.Now()
	if s.provider == nil {
		return "", nil, fmt.Errorf("%w: nil provider", ErrInvalidInput)
	}
	if objectName == "" {
		objectName = "object"
	}

	slog.Info("removing object", "object", objectName, "provider", s.provider.Name())

	imageData, w, h, err := s.prepareImage(imagePath)
	if err != nil {
		return "", nil, err
	}

	req := &Request{
		Image:  imageData,
		Prompt: fmt.Sprintf("Remove the %s from the image", objectName),
	}

	if s.provider.AcceptsMask() {
		maskData, err := s.prepareMask(maskPath, w, h)
		if err != nil {
			return "", nil, err
		}
		req.Mask = maskData
	}

	output, err := s.provider.Submit(ctx, req)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return "", nil, err
		}
		return "", nil, &ProviderError{Provider: s.provider.Name(), Err: err}
	}

	if outputPath == "" {
		dir, name := filepath.Split(imagePath)
		outputPath = filepath.Join(dir, "result_"+name)
	}
	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return "", nil, fmt.Errorf("write result: %w", err)
	}

	result := &Result{
		Success:       true,
		ObjectRemoved: objectName,
		OutputPath:    outputPath,
		InferenceTime: time.Since(start),
	}
	slog.Info("inpainting completed", "object", objectName, "output", outputPath, "cost", result.InferenceTime)
	return outputPath, result, nil
}

// RemoveMultiple 把多个物体名拼成一条描述后移除
func (s *Service) RemoveMultiple(ctx context.Context, imagePath, maskPath string, objectNames []string, outputPath string) (string, *Result, error) {
	desc, err := Describe(objectNames)
	if err != nil {
		return "", nil, err
	}
	return s.Remove(ctx, imagePath, maskPath, desc, outputPath)
}

// prepareImage 读原图字节，必要时缩放重编码
// 返回缩放后的尺寸，w 为 0 表示没做尺寸处理
func (s *Service) prepareImage(path string) ([]byte, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read image: %w", err)
	}
	if s.maxDim <= 0 {
		return data, 0, 0, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	fitted := util.FitWithin(img, s.maxDim)
	if fitted == img {
		return data, img.Bounds().Dx(), img.Bounds().Dy(), nil
	}

	encoded, err := util.EncodePNG(fitted)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode resized image: %w", err)
	}
	slog.Info("image downscaled before submit", "max", s.maxDim,
		"width", fitted.Bounds().Dx(), "height", fitted.Bounds().Dy())
	return encoded, fitted.Bounds().Dx(), fitted.Bounds().Dy(), nil
}

// prepareMask 膨胀掩码并保持与提交图像同尺寸
func (s *Service) prepareMask(maskPath string, w, h int) ([]byte, error) {
	dilatedPath, err := mask.DilateFile(maskPath, s.radius)
	if err != nil {
		return nil, err
	}

	if w == 0 {
		data, err := os.ReadFile(dilatedPath)
		if err != nil {
			return nil, fmt.Errorf("read dilated mask: %w", err)
		}
		return data, nil
	}

	m, err := mask.Load(dilatedPath)
	if err != nil {
		return nil, err
	}
	return util.EncodePNG(mask.Resize(m, w, h))
}

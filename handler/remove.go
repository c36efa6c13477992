package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"github.com/chaos-io/objectremover/config"
	"github.com/chaos-io/objectremover/inpaint"
	"github.com/chaos-io/objectremover/mask"
)

type RemoveResponse struct {
	Success       bool    `json:"success"`
	ObjectRemoved string  `json:"object_removed"`
	OutputPath    string  `json:"output_path"`
	InferenceTime float64 `json:"inference_time"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type RemoveHandler struct {
	cfg *config.Config
	svc *inpaint.Service
}

func NewRemoveHandler(cfg *config.Config, svc *inpaint.Service) *RemoveHandler {
	return &RemoveHandler{cfg: cfg, svc: svc}
}

// Register 挂载路由
func (h *RemoveHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.POST("/api/remove", h.Remove)
}

func (h *RemoveHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Remove 处理一次物体移除请求
// multipart 字段：image、mask 文件，objects 逗号分隔的物体名
func (h *RemoveHandler) Remove(c *gin.Context) {
	imageFile, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing image file", Error: err.Error()})
		return
	}
	maskFile, err := c.FormFile("mask")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing mask file", Error: err.Error()})
		return
	}

	for _, f := range []*multipart.FileHeader{imageFile, maskFile} {
		if f.Size > h.cfg.Upload.MaxSize {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: fmt.Sprintf("file exceeds size limit (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
			})
			return
		}
		if !h.isAllowedType(f.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unsupported file type, want JPEG/PNG"})
			return
		}
	}

	objects := splitObjects(c.PostForm("objects"))

	id := ksuid.New().String()
	imagePath := filepath.Join(h.cfg.Upload.UploadDir, id+"_image"+filepath.Ext(imageFile.Filename))
	maskPath := filepath.Join(h.cfg.Upload.UploadDir, id+"_mask"+filepath.Ext(maskFile.Filename))

	if err := c.SaveUploadedFile(imageFile, imagePath); err != nil {
		slog.Error("failed to save uploaded image", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to save upload", Error: err.Error()})
		return
	}
	if err := c.SaveUploadedFile(maskFile, maskPath); err != nil {
		slog.Error("failed to save uploaded mask", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to save upload", Error: err.Error()})
		return
	}

	slog.Info("removal request accepted", "id", id, "objects", objects)

	var result *inpaint.Result
	ctx := c.Request.Context()
	switch len(objects) {
	case 0:
		_, result, err = h.svc.Remove(ctx, imagePath, maskPath, "", "")
	case 1:
		_, result, err = h.svc.Remove(ctx, imagePath, maskPath, objects[0], "")
	default:
		_, result, err = h.svc.RemoveMultiple(ctx, imagePath, maskPath, objects, "")
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, RemoveResponse{
		Success:       true,
		ObjectRemoved: result.ObjectRemoved,
		OutputPath:    result.OutputPath,
		InferenceTime: result.InferenceTime.Seconds(),
	})
}

func (h *RemoveHandler) writeError(c *gin.Context, err error) {
	slog.Error("removal failed", "error", err)

	var perr *inpaint.ProviderError
	switch {
	case errors.Is(err, inpaint.ErrMissingCredential):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "provider credential is not configured", Error: err.Error()})
	case errors.Is(err, inpaint.ErrInvalidInput), errors.Is(err, mask.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid input", Error: err.Error()})
	case errors.As(err, &perr):
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "inpainting provider failed", Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "removal failed", Error: err.Error()})
	}
}

func (h *RemoveHandler) isAllowedType(contentType string) bool {
	for _, t := range h.cfg.Upload.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func splitObjects(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

package fal

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/chaos-io/objectremover/inpaint"
	"github.com/chaos-io/objectremover/util"
	nhttp "github.com/chaos-io/objectremover/util/http"
)

const (
	// EnvAPIKey 凭证环境变量名
	EnvAPIKey = "FAL_KEY"

	defaultBaseURL = "https://fal.run"

	// ModelFluxKontext 纯提示词驱动的编辑模型，不接收掩码
	ModelFluxKontext = "fal-ai/flux-pro/kontext"
)

// Client 通过 fal.run 调 Flux Kontext，同步接口，一次 POST 返回结果
type Client struct {
	apiKey  string
	baseURL string
	model   string
	cli     nhttp.IClient
}

var _ inpaint.Provider = (*Client)(nil)

func NewClient(apiKey string) *Client {
	if apiKey == "" {
		slog.Warn("FAL_KEY not set, removal requests will fail",
			"hint", "get a key from https://fal.ai/dashboard/keys")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   ModelFluxKontext,
		cli:     nhttp.NewHTTPClient(),
	}
}

func (c *Client) Name() string { return "fal" }

// AcceptsMask Kontext 按提示词定位要改的区域，掩码不参与
func (c *Client) AcceptsMask() bool { return false }

type falRequest struct {
	Prompt          string  `json:"prompt"`
	ImageURL        string  `json:"image_url"`
	GuidanceScale   float64 `json:"guidance_scale,omitempty"`
	SafetyTolerance int     `json:"safety_tolerance,omitempty"`
}

type falImage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type falResponse struct {
	Image   *falImage  `json:"image,omitempty"`
	Images  []falImage `json:"images,omitempty"`
	Message string     `json:"msg,omitempty"`
}

// Submit 提交编辑请求并下载第一张结果图
func (c *Client) Submit(ctx context.Context, req *inpaint.Request) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: FAL_KEY is not set", inpaint.ErrMissingCredential)
	}

	payload := &falRequest{
		Prompt:          req.Prompt,
		ImageURL:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.Image),
		GuidanceScale:   3.5,
		SafetyTolerance: 6,
	}

	var resp falResponse
	err := c.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: c.baseURL + "/" + c.model,
		Method:     "POST",
		Header: map[string]string{
			"Authorization": "Key " + c.apiKey,
			"Content-Type":  "application/json",
		},
		Body:     payload,
		Response: &resp,
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.model, err)
	}

	// 内容审查等错误走 msg 字段
	if resp.Message != "" {
		return nil, fmt.Errorf("%s rejected the request: %s", c.model, resp.Message)
	}

	img := resp.Image
	if img == nil && len(resp.Images) > 0 {
		img = &resp.Images[0]
	}
	if img == nil || img.URL == "" {
		return nil, fmt.Errorf("%s returned no images", c.model)
	}

	data, err := util.DownloadBytes(img.URL)
	if err != nil {
		return nil, fmt.Errorf("download result: %w", err)
	}
	return data, nil
}

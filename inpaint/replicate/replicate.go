package replicate

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaos-io/objectremover/inpaint"
	"github.com/chaos-io/objectremover/util"
	nhttp "github.com/chaos-io/objectremover/util/http"
)

const (
	// EnvAPIToken 凭证环境变量名
	EnvAPIToken = "REPLICATE_API_TOKEN"

	defaultBaseURL = "https://api.replicate.com/v1"

	// LamaVersion LaMa 修补模型 allenhooo/lama 的版本
	LamaVersion = "cdac78a1bec5b23c07fd29692fb70baa513ea403a39e643c48ec5edadb15fe72"

	statusStarting   = "starting"
	statusProcessing = "processing"
	statusSucceeded  = "succeeded"
)

// Client 通过 Replicate predictions API 调 LaMa，吃图 + 掩码
// 提交后在客户端内轮询直到预测结束，对调用方是一次阻塞调用
type Client struct {
	apiToken     string
	version      string
	baseURL      string
	cli          nhttp.IClient
	pollInterval time.Duration
}

var _ inpaint.Provider = (*Client)(nil)

func NewClient(apiToken string) *Client {
	if apiToken == "" {
		slog.Warn("REPLICATE_API_TOKEN not set, removal requests will fail",
			"hint", "get a token from https://replicate.com/account/api-tokens")
	}
	return &Client{
		apiToken:     apiToken,
		version:      LamaVersion,
		baseURL:      defaultBaseURL,
		cli:          nhttp.NewHTTPClient(),
		pollInterval: 2 * time.Second,
	}
}

func (c *Client) Name() string { return "replicate" }

func (c *Client) AcceptsMask() bool { return true }

type prediction struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output interface{} `json:"output"`
	Error  interface{} `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// Submit 创建预测、轮询到终态、下载输出图
func (c *Client) Submit(ctx context.Context, req *inpaint.Request) ([]byte, error) {
	if c.apiToken == "" {
		return nil, fmt.Errorf("%w: REPLICATE_API_TOKEN is not set", inpaint.ErrMissingCredential)
	}

	body := map[string]interface{}{
		"version": c.version,
		"input": map[string]interface{}{
			"image": dataURI(req.Image),
			"mask":  dataURI(req.Mask),
		},
	}

	var pred prediction
	err := c.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: c.baseURL + "/predictions",
		Method:     "POST",
		Header:     c.headers(),
		Body:       body,
		Response:   &pred,
	})
	if err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}

	slog.Info("prediction created", "id", pred.ID, "status", pred.Status)

	final, err := c.wait(ctx, &pred)
	if err != nil {
		return nil, err
	}

	outputURL, err := outputURL(final.Output)
	if err != nil {
		return nil, err
	}

	data, err := util.DownloadBytes(outputURL)
	if err != nil {
		return nil, fmt.Errorf("download result: %w", err)
	}
	return data, nil
}

// wait 轮询 urls.get 直到预测离开 starting/processing
func (c *Client) wait(ctx context.Context, pred *prediction) (*prediction, error) {
	current := pred
	for current.Status == statusStarting || current.Status == statusProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		next := &prediction{}
		err := c.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
			RequestURI: current.URLs.Get,
			Method:     "GET",
			Header:     c.headers(),
			Response:   next,
		})
		if err != nil {
			return nil, fmt.Errorf("poll prediction %s: %w", current.ID, err)
		}
		if next.URLs.Get == "" {
			next.URLs = current.URLs
		}
		next.ID = current.ID
		current = next
	}

	if current.Status != statusSucceeded {
		return nil, fmt.Errorf("prediction %s ended with status %s: %v", current.ID, current.Status, current.Error)
	}
	return current, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Token " + c.apiToken,
		"Content-Type":  "application/json",
	}
}

// outputURL 预测输出可能是单个 URL 或 URL 列表
func outputURL(output interface{}) (string, error) {
	switch out := output.(type) {
	case string:
		if out != "" {
			return out, nil
		}
	case []interface{}:
		for _, item := range out {
			if u, ok := item.(string); ok && u != "" {
				return u, nil
			}
		}
	}
	return "", fmt.Errorf("prediction returned no usable output")
}

func dataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// Package client 透過 HTTP 呼叫執行中的食譜合成服務。
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1/chef"

// SynthesizeResult 合成結果，有多個選項時帶票據
type SynthesizeResult struct {
	chefCore.Response
	Ticket string `json:"ticket,omitempty"`
}

// Client 食譜合成 API 客戶端
type Client struct {
	client *resty.Client
}

// New 創建客戶端
func New(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "kbctl")

	return &Client{client: client}
}

// Synthesize 送出自由文字查詢
func (c *Client) Synthesize(ctx context.Context, query string) (*SynthesizeResult, error) {
	var out SynthesizeResult
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/synthesize", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resolve 以票據與選項序號取得食譜
func (c *Client) Resolve(ctx context.Context, ticket string, option int) (*chefCore.Assembled, error) {
	var out chefCore.Assembled
	path := fmt.Sprintf("%s/tickets/%s/resolve", apiPrefix, ticket)
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"option": option}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recipe 依 id 取得渲染後的食譜
func (c *Client) Recipe(ctx context.Context, id string) (*chefCore.Assembled, error) {
	var out chefCore.Assembled
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/recipes/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cuisines 列出料理風格
func (c *Client) Cuisines(ctx context.Context) ([]string, error) {
	var out struct {
		Cuisines []string `json:"cuisines"`
	}
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/cuisines", nil, &out); err != nil {
		return nil, err
	}
	return out.Cuisines, nil
}

// do 發送請求，非 2xx 時把錯誤響應轉回 CustomError
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}

	common.LogDebug("api response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("latency", resp.Time()),
	)

	if resp.IsError() {
		var apiErr common.ErrorResponse
		if err := json.Unmarshal(resp.Body(), &apiErr); err != nil || apiErr.Code == "" {
			return common.NewError(common.ErrCodeInternalError, resp.Status(), resp.StatusCode(), nil)
		}
		return common.NewError(apiErr.Code, apiErr.Message, resp.StatusCode(), nil)
	}

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes 单次响应体上限
const maxBodyBytes = 32 << 20

var (
	// ErrInaccessible 表格不可访问（未公开共享或不存在）
	ErrInaccessible = errors.New("spreadsheet inaccessible, ensure it is shared as 'Anyone with the link can view'")
	// ErrTooLarge 响应体超过上限
	ErrTooLarge = errors.New("response body too large")
)

// Fetcher 远程表格访问接口
type Fetcher interface {
	// FetchMetadata 获取表格文档的结构信息（HTML 页面）
	FetchMetadata(ctx context.Context, spreadsheetID string) (string, error)
	// FetchCSV 获取单个 Sheet 的 CSV 文本
	FetchCSV(ctx context.Context, spreadsheetID, sheetName string) (string, error)
}

// Client 基于 HTTP 的 Google 表格访问客户端
type Client struct {
	baseURL string
	http    *http.Client
	maxBody int64
}

// NewClient 创建客户端；baseURL 形如 https://docs.google.com/spreadsheets/d
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		maxBody: maxBodyBytes,
	}
}

// MetadataURL 文档编辑页地址
func (c *Client) MetadataURL(spreadsheetID string) string {
	return fmt.Sprintf("%s/%s/edit", c.baseURL, url.PathEscape(spreadsheetID))
}

// CSVURL gviz CSV 导出地址
func (c *Client) CSVURL(spreadsheetID, sheetName string) string {
	q := url.Values{}
	q.Set("tqx", "out:csv")
	q.Set("sheet", sheetName)
	return fmt.Sprintf("%s/%s/gviz/tq?%s", c.baseURL, url.PathEscape(spreadsheetID), q.Encode())
}

// FetchMetadata 获取文档 HTML
func (c *Client) FetchMetadata(ctx context.Context, spreadsheetID string) (string, error) {
	body, err := c.get(ctx, c.MetadataURL(spreadsheetID))
	if err != nil {
		return "", fmt.Errorf("fetch metadata %s: %w", spreadsheetID, err)
	}
	return body, nil
}

// FetchCSV 获取 Sheet CSV
func (c *Client) FetchCSV(ctx context.Context, spreadsheetID, sheetName string) (string, error) {
	body, err := c.get(ctx, c.CSVURL(spreadsheetID, sheetName))
	if err != nil {
		return "", fmt.Errorf("fetch sheet %s/%s: %w", spreadsheetID, sheetName, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("status %d: %w", resp.StatusCode, ErrInaccessible)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > c.maxBody {
		return "", fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBody)
	}
	return string(data), nil
}

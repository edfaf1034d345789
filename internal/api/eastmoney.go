// Package api 封装东方财富全市场快照与日 K 线接口，含请求节流、重试与 trace 日志。
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"stockLeader/internal/trace"
)

// 东方财富接口地址
const (
	EastMoneyListURL  = "https://82.push2.eastmoney.com/api/qt/clist/get"
	EastMoneyKLineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

// 请求超时与重试
const (
	defaultHTTPTimeout = 5 * time.Second
	maxRetries         = 3
	defaultRetryDelay  = 500 * time.Millisecond
	retryDelay429      = 5 * time.Second
	httpStatusTooMany  = 429
)

// 防封：请求间隔、抖动、并发上限
const (
	maxRespLogLen        = 600
	defaultRequestGap    = 200 * time.Millisecond
	defaultRequestJitter = 150 * time.Millisecond
	defaultMaxConcurrent = 4
)

// 请求头（模拟浏览器）
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

// ErrNoData 接口返回成功但没有可用数据。
var ErrNoData = errors.New("api: no data")

// Options 客户端参数；零值字段取默认。
type Options struct {
	ListURL       string
	KLineURL      string
	RequestGap    time.Duration
	RequestJitter time.Duration
	MaxConcurrent int
	Timeout       time.Duration
	RetryDelay    time.Duration
}

func DefaultOptions() Options {
	return Options{
		ListURL:       EastMoneyListURL,
		KLineURL:      EastMoneyKLineURL,
		RequestGap:    defaultRequestGap,
		RequestJitter: defaultRequestJitter,
		MaxConcurrent: defaultMaxConcurrent,
		Timeout:       defaultHTTPTimeout,
		RetryDelay:    defaultRetryDelay,
	}
}

type Client struct {
	HTTPClient *http.Client

	listURL    string
	klineURL   string
	gap        time.Duration
	jitter     time.Duration
	retryDelay time.Duration
	sem        chan struct{}

	lastReqMu sync.Mutex
	lastReq   time.Time
}

func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.ListURL == "" {
		opts.ListURL = def.ListURL
	}
	if opts.KLineURL == "" {
		opts.KLineURL = def.KLineURL
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = def.MaxConcurrent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		listURL:    opts.ListURL,
		klineURL:   opts.KLineURL,
		gap:        opts.RequestGap,
		jitter:     opts.RequestJitter,
		retryDelay: opts.RetryDelay,
		sem:        make(chan struct{}, opts.MaxConcurrent),
	}
}

// paceRequest 保证相邻请求间隔不小于 gap，再叠加随机抖动。
func (c *Client) paceRequest(ctx context.Context) {
	if c.gap <= 0 && c.jitter <= 0 {
		return
	}
	c.lastReqMu.Lock()
	elapsed := time.Since(c.lastReq)
	c.lastReqMu.Unlock()
	d := c.gap - elapsed
	if c.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(c.jitter) + 1))
	}
	if d > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
	}
	c.lastReqMu.Lock()
	c.lastReq = time.Now()
	c.lastReqMu.Unlock()
}

// get 带节流、并发上限与重试的 GET，返回完整响应体。
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("api client is nil")
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	var lastErr error
	var lastStatus int
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay
			if lastStatus == httpStatusTooMany {
				backoff = retryDelay429
				trace.Log(ctx, "api: 429 限流，等待 %s 后重试", backoff)
			} else {
				trace.Log(ctx, "api: retry %d/%d %s", attempt, maxRetries, url)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		c.paceRequest(ctx)
		body, status, err := c.do(ctx, client, url)
		lastStatus = status
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return body, nil
	}
	trace.Warn(ctx, "api: get fail url=%s err=%v", url, lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, client *http.Client, url string) ([]byte, int, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
	defer func() { <-c.sem }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", acceptLanguage)
	trace.Debug(ctx, "api: req GET %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	trace.Debug(ctx, "api: resp status=%d len=%d body=%s", resp.StatusCode, len(body), truncateForLog(body))
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("http %d", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

func truncateForLog(b []byte) string {
	s := string(b)
	if len(b) > maxRespLogLen {
		s = s[:maxRespLogLen] + "..."
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}

// FormatCode 转为东方财富 secid：上海 1.600519，深圳/北交所 0.000001（北交所 92 开头归 0）
func FormatCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "0.000000"
	}
	if strings.HasPrefix(code, "92") {
		return "0." + code
	}
	switch code[0] {
	case '6', '5', '9':
		return "1." + code
	default:
		return "0." + code
	}
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"student_risk_backend/internal/config"
	"sync"
)

type ForecastRequest struct {
	AttendanceData []float64 `json:"attendance_data"`
	Periods        int       `json:"periods"`
}

type ForecastResponse struct {
	Success  bool      `json:"success"`
	Forecast []float64 `json:"forecast"`
	Method   string    `json:"method"`
	Error    string    `json:"error,omitempty"`
}

// ForecastHealth 健康探测结果
type ForecastHealth string

const (
	ForecastConnected    ForecastHealth = "connected"
	ForecastError        ForecastHealth = "error"
	ForecastDisconnected ForecastHealth = "disconnected"
)

// ForecastClient 外部预测服务的 HTTP 客户端
type ForecastClient struct {
	mu         sync.RWMutex
	endpoint   string
	httpClient *http.Client
}

func NewForecastClient(cfg config.ForecastConfig) *ForecastClient {
	return &ForecastClient{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// UpdateConfig 配置热更新
func (c *ForecastClient) UpdateConfig(cfg config.ForecastConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = cfg.Endpoint
	c.httpClient = &http.Client{Timeout: cfg.Timeout}
}

func (c *ForecastClient) current() (string, *http.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint, c.httpClient
}

// Predict 调用远端预测；网络错误、非 2xx 或 success=false 都以 *RemoteError 返回
func (c *ForecastClient) Predict(ctx context.Context, series []float64, horizon int) (*ForecastResponse, error) {
	endpoint, client := c.current()

	body, err := json.Marshal(ForecastRequest{AttendanceData: series, Periods: horizon})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Kind: FailureNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Kind: FailureStatus,
			Raw:  string(raw),
			Err:  fmt.Errorf("forecast API error (status %d)", resp.StatusCode),
		}
	}

	var result ForecastResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &RemoteError{Kind: FailureMalformed, Raw: string(raw), Err: err}
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "forecast service reported failure"
		}
		return nil, &RemoteError{Kind: FailureRemote, Err: errors.New(msg)}
	}

	return &result, nil
}

// HealthURL 把 endpoint 中的 /forecast 换成 /health
func HealthURL(endpoint string) string {
	return strings.Replace(endpoint, "/forecast", "/health", 1)
}

// Health 探测预测服务：2xx 为 connected，可达但出错为 error，不可达为 disconnected
func (c *ForecastClient) Health(ctx context.Context) ForecastHealth {
	endpoint, client := c.current()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, HealthURL(endpoint), nil)
	if err != nil {
		return ForecastDisconnected
	}

	resp, err := client.Do(req)
	if err != nil {
		return ForecastDisconnected
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return ForecastConnected
	}
	return ForecastError
}

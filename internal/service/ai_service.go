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

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AIService OpenAI 兼容的 chat/completions 客户端
type AIService struct {
	mu         sync.RWMutex
	config     config.AIConfig
	httpClient *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// UpdateConfig 配置热更新，切换模型或密钥无需重启
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.httpClient = &http.Client{Timeout: cfg.Timeout}
}

func (s *AIService) current() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.httpClient
}

// Chat 以单条 user 消息发送 prompt，返回 choices[0].message.content
func (s *AIService) Chat(ctx context.Context, prompt string) (string, error) {
	cfg, client := s.current()

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", &RemoteError{Kind: FailureNetwork, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", &RemoteError{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteError{Kind: FailureNetwork, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteError{
			Kind: FailureStatus,
			Err:  fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	// 外层报文不是 JSON（代理返回的错误页等），模型根本没有回复，按状态类失败处理
	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &RemoteError{
			Kind: FailureStatus,
			Raw:  string(body),
			Err:  fmt.Errorf("AI API returned a non-JSON body: %w", err),
		}
	}
	if result.Error != nil {
		return "", &RemoteError{Kind: FailureRemote, Err: errors.New(result.Error.Message)}
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", &RemoteError{Kind: FailureMalformed, Err: errors.New("AI returned no choices")}
}

// truncate 按 rune 截断
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package rewrite 提供示例输出的改写建议（整理助手）
package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
)

// Service 改写建议服务
type Service struct {
	chatModel model.ChatModel
	config    *Config
}

// Config 改写服务配置
type Config struct {
	// SystemPrompt 系统提示词
	SystemPrompt string `json:"system_prompt"`
	// UserPromptTemplate 用户提示词模板
	UserPromptTemplate string `json:"user_prompt_template"`
	// Enabled 是否启用
	Enabled bool `json:"enabled"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		SystemPrompt: `You are an editor improving training examples for supervised fine-tuning.
Given an input and the current output, propose an improved output that is more
accurate, complete, and consistent in tone, while staying faithful to the input.

Respond with ONLY a JSON object:
{"rewrite": "<the improved output>", "rationale": "<one sentence on what changed>"}`,
		UserPromptTemplate: `Input:
%s

Current output:
%s

JSON:`,
		Enabled: true,
	}
}

// NewService 创建改写服务
func NewService(chatModel model.ChatModel, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		chatModel: chatModel,
		config:    cfg,
	}
}

// Suggestion 改写建议
type Suggestion struct {
	Rewrite   string `json:"rewrite"`
	Rationale string `json:"rationale"`
}

// Suggest 为一个示例生成改写建议
func (s *Service) Suggest(ctx context.Context, input, output string) (*Suggestion, error) {
	if !s.config.Enabled || s.chatModel == nil {
		return nil, fmt.Errorf("rewrite assistant is not available")
	}

	userPrompt := fmt.Sprintf(s.config.UserPromptTemplate, input, output)

	messages := []*schema.Message{
		{
			Role:    schema.System,
			Content: s.config.SystemPrompt,
		},
		{
			Role:    schema.User,
			Content: userPrompt,
		},
	}

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("assistant call failed: %w", err)
	}

	suggestion, err := ParseSuggestion(resp.Content)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// ParseSuggestion 解析助手返回的 JSON 建议，容忍常见的格式问题
func ParseSuggestion(content string) (*Suggestion, error) {
	s := strings.TrimSpace(content)

	// 剥掉代码块包裹
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(s), &suggestion); err != nil {
		// 使用 jsonrepair 进行强力修复后重试
		repaired, rerr := jsonrepair.JSONRepair(s)
		if rerr != nil {
			return nil, fmt.Errorf("failed to parse suggestion: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &suggestion); err != nil {
			return nil, fmt.Errorf("failed to parse repaired suggestion: %w", err)
		}
	}

	if strings.TrimSpace(suggestion.Rewrite) == "" {
		return nil, fmt.Errorf("assistant returned an empty rewrite")
	}
	return &suggestion, nil
}

// SetEnabled 设置启用状态
func (s *Service) SetEnabled(enabled bool) {
	s.config.Enabled = enabled
}

// IsEnabled 返回是否启用
func (s *Service) IsEnabled() bool {
	return s.config.Enabled
}

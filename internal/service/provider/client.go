// Package provider 封装微调服务商的 HTTP API（OpenAI 兼容）。
// 纯协作方接口：上传文件、创建/查询/取消微调任务、对话补全，本层不做重试。
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ashwinyue/tunelab/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// JobStatus 服务商侧任务状态
type JobStatus struct {
	Status string
	// FineTunedModel 训练完成后的模型标识，未完成时为空
	FineTunedModel string
	Error          string
}

// Client 服务商客户端
type Client struct {
	api *openai.Client
}

// New 创建服务商客户端
func New(cfg *config.ProviderConfig) *Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60
	}
	c.HTTPClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}

	return &Client{api: openai.NewClientWithConfig(c)}
}

// NewWithHTTPClient 创建带自定义 HTTP 客户端的服务商客户端（测试用）
func NewWithHTTPClient(cfg *config.ProviderConfig, httpClient *http.Client) *Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	c.HTTPClient = httpClient
	return &Client{api: openai.NewClientWithConfig(c)}
}

// UploadTrainingFile 上传 JSONL 训练文件，返回服务商文件ID
func (c *Client) UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error) {
	file, err := c.api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeFineTune,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload training file: %w", err)
	}
	return file.ID, nil
}

// CreateJob 创建微调任务，返回服务商任务ID
func (c *Client) CreateJob(ctx context.Context, fileID, baseModel string) (string, error) {
	job, err := c.api.CreateFineTuningJob(ctx, openai.FineTuningJobRequest{
		TrainingFile: fileID,
		Model:        baseModel,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create fine-tuning job: %w", err)
	}
	return job.ID, nil
}

// GetStatus 查询微调任务状态
func (c *Client) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	job, err := c.api.RetrieveFineTuningJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve fine-tuning job: %w", err)
	}

	status := &JobStatus{
		Status:         string(job.Status),
		FineTunedModel: job.FineTunedModel,
	}
	return status, nil
}

// Cancel 取消微调任务
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	if _, err := c.api.CancelFineTuningJob(ctx, jobID); err != nil {
		return fmt.Errorf("failed to cancel fine-tuning job: %w", err)
	}
	return nil
}

// Chat 对话补全：generate(modelRef, systemInstruction?, userInput) -> text
func (c *Client) Chat(ctx context.Context, modelRef, systemPrompt, input string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    modelRef,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

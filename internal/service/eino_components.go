package service

import (
	"context"
	"fmt"

	"github.com/ashwinyue/tunelab/internal/config"
	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"
)

// newAssistantModel 创建整理助手使用的 ChatModel
func newAssistantModel(ctx context.Context, cfg *config.Config) (ecomodel.ChatModel, error) {
	aiCfg := cfg.Assistant

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported assistant provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		// 未单独配置时复用微调服务商的凭证
		apiKey = cfg.Provider.APIKey
		baseURL = cfg.Provider.BaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for assistant provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

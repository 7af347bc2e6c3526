package service

import (
	"context"
	"log"

	"github.com/ashwinyue/tunelab/internal/config"
	"github.com/ashwinyue/tunelab/internal/repository"
	"github.com/ashwinyue/tunelab/internal/service/evaluation"
	"github.com/ashwinyue/tunelab/internal/service/example"
	"github.com/ashwinyue/tunelab/internal/service/project"
	"github.com/ashwinyue/tunelab/internal/service/provider"
	"github.com/ashwinyue/tunelab/internal/service/rewrite"
	"github.com/ashwinyue/tunelab/internal/service/split"
	"github.com/ashwinyue/tunelab/internal/service/training"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Project    *project.Service
	Example    *example.Service
	Split      *split.Service
	Training   *training.Service
	Evaluation *evaluation.Service

	// 协作方
	Provider *provider.Client
	Rewrite  *rewrite.Service

	// 配置
	Config *config.Config
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 服务商客户端
	providerClient := provider.New(&cfg.Provider)

	// 整理助手（可选，创建失败时禁用改写建议）
	var rewriteSvc *rewrite.Service
	if cfg.Assistant.Enabled {
		assistantModel, err := newAssistantModel(ctx, cfg)
		if err != nil {
			log.Printf("Warning: failed to create assistant model: %v", err)
		} else {
			rewriteSvc = rewrite.NewService(assistantModel, nil)
		}
	}

	statusCache := training.NewStatusCache(redisClient)

	return &Services{
		Project:    project.NewService(repo),
		Example:    example.NewService(repo, rewriteSvc),
		Split:      split.NewService(repo.Example),
		Training:   training.NewService(repo.TrainingRun, repo.Example, providerClient, statusCache),
		Evaluation: evaluation.NewService(repo.Evaluation, repo.Example, providerClient, cfg.Provider.GenerateWorkers),
		Provider:   providerClient,
		Rewrite:    rewriteSvc,
		Config:     cfg,
	}, nil
}

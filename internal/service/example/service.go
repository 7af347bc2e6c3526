// Package example 提供示例管理服务：录入、评分、改写
package example

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/repository"
	"github.com/ashwinyue/tunelab/internal/service/rewrite"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"gorm.io/gorm"
)

// Service 示例服务
type Service struct {
	repo     *repository.Repositories
	rewriter *rewrite.Service
}

// NewService 创建示例服务
func NewService(repo *repository.Repositories, rewriter *rewrite.Service) *Service {
	return &Service{repo: repo, rewriter: rewriter}
}

// CreateRequest 创建示例请求
type CreateRequest struct {
	Input  string `json:"input" binding:"required"`
	Output string `json:"output" binding:"required"`
}

// Create 创建示例
func (s *Service) Create(ctx context.Context, projectID string, req *CreateRequest) (*model.Example, error) {
	example := &model.Example{
		ProjectID: projectID,
		Input:     req.Input,
		Output:    req.Output,
	}
	if err := s.repo.Example.Create(example); err != nil {
		return nil, fmt.Errorf("failed to create example: %w", err)
	}
	return example, nil
}

// Get 获取示例
func (s *Service) Get(ctx context.Context, id string) (*model.Example, error) {
	example, err := s.repo.Example.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("example not found: %s", id)
		}
		return nil, err
	}
	return example, nil
}

// List 列出项目下的示例
func (s *Service) List(ctx context.Context, projectID string, page, size int) ([]*model.Example, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	return s.repo.Example.ListByProject(projectID, offset, size)
}

// ListBySplit 按划分值列出示例，创建时间升序
func (s *Service) ListBySplit(ctx context.Context, projectID, split string) ([]*model.Example, error) {
	return s.repo.Example.ListBySplit(projectID, split)
}

// UpdateRequest 更新示例请求
type UpdateRequest struct {
	Input   *string `json:"input"`
	Output  *string `json:"output"`
	Rewrite *string `json:"rewrite"`
}

// Update 更新示例内容
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*model.Example, error) {
	example, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Input != nil {
		example.Input = *req.Input
	}
	if req.Output != nil {
		example.Output = *req.Output
	}
	if req.Rewrite != nil {
		if *req.Rewrite == "" {
			example.Rewrite = nil
		} else {
			example.Rewrite = req.Rewrite
		}
	}

	if err := s.repo.Example.Update(example); err != nil {
		return nil, fmt.Errorf("failed to update example: %w", err)
	}
	return example, nil
}

// Delete 删除示例
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Example.Delete(id)
}

// RateRequest 评分请求
type RateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// Rate 为示例评分（1-10）
func (s *Service) Rate(ctx context.Context, id string, req *RateRequest) (*model.Example, error) {
	if req.Rating < 1 || req.Rating > 10 {
		return nil, types.PreconditionFailed("rating must be between 1 and 10, got %d", req.Rating)
	}

	example, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	example.Rating = &req.Rating
	example.RatedAt = &now

	if err := s.repo.Example.Update(example); err != nil {
		return nil, fmt.Errorf("failed to rate example: %w", err)
	}
	return example, nil
}

// SuggestRewrite 调用整理助手为示例生成改写建议（不落库，由调用方决定是否采纳）
func (s *Service) SuggestRewrite(ctx context.Context, id string) (*rewrite.Suggestion, error) {
	if s.rewriter == nil || !s.rewriter.IsEnabled() {
		return nil, types.PreconditionFailed("rewrite assistant is not configured")
	}

	example, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	suggestion, err := s.rewriter.Suggest(ctx, example.Input, example.Output)
	if err != nil {
		return nil, types.UpstreamGenerationFailed("rewrite suggestion failed", err)
	}
	return suggestion, nil
}

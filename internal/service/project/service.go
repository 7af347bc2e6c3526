// Package project 提供项目管理服务
package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/repository"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"gorm.io/gorm"
)

// Service 项目服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建项目服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// CreateRequest 创建项目请求
type CreateRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	BaseModel    string `json:"base_model"`
	SystemPrompt string `json:"system_prompt"`
}

// Create 创建项目
func (s *Service) Create(ctx context.Context, req *CreateRequest, defaultBaseModel string) (*model.Project, error) {
	baseModel := req.BaseModel
	if baseModel == "" {
		baseModel = defaultBaseModel
	}

	project := &model.Project{
		Name:         req.Name,
		Description:  req.Description,
		BaseModel:    baseModel,
		SystemPrompt: req.SystemPrompt,
	}
	if err := s.repo.Project.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get 获取项目
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("project not found: %s", id)
		}
		return nil, err
	}
	return project, nil
}

// List 列出项目
func (s *Service) List(ctx context.Context, page, size int) ([]*model.Project, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size
	return s.repo.Project.List(offset, size)
}

// UpdateRequest 更新项目请求
type UpdateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	BaseModel    *string `json:"base_model"`
	SystemPrompt *string `json:"system_prompt"`
}

// Update 更新项目
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*model.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.BaseModel != nil {
		project.BaseModel = *req.BaseModel
	}
	if req.SystemPrompt != nil {
		project.SystemPrompt = *req.SystemPrompt
	}

	if err := s.repo.Project.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// Delete 删除项目
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Project.Delete(id)
}

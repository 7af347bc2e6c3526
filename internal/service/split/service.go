package split

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"gorm.io/gorm"
)

// ExampleStore 划分服务依赖的示例存取接口
type ExampleStore interface {
	ListForSplit(projectID string) ([]*model.Example, error)
	LockedExampleIDs(projectID string) (map[string]bool, error)
	UpdateSplits(assignments map[string]string) error
	GetByID(id string) (*model.Example, error)
	UpdateSplit(id string, split *string) error
}

// Service 划分服务
type Service struct {
	store ExampleStore
}

// NewService 创建划分服务
func NewService(store ExampleStore) *Service {
	return &Service{store: store}
}

// Run 对项目执行一次划分并写回结果。
// 零可划分示例返回 NothingToSplit 的空计划，不视为错误。
func (s *Service) Run(ctx context.Context, projectID string, opts Options) (*Plan, error) {
	examples, err := s.store.ListForSplit(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load examples: %w", err)
	}

	locked, err := s.store.LockedExampleIDs(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load locked examples: %w", err)
	}

	views := make([]ExampleView, 0, len(examples))
	for _, ex := range examples {
		views = append(views, ExampleView{
			ID:        ex.ID,
			Rating:    ex.Rating,
			Split:     ex.SplitValue(),
			Locked:    locked[ex.ID],
			CreatedAt: ex.CreatedAt,
		})
	}

	plan := Compute(views, opts)

	if err := s.store.UpdateSplits(plan.Assignments); err != nil {
		return nil, fmt.Errorf("failed to persist split: %w", err)
	}

	return plan, nil
}

// Reassign 显式改动单个示例的划分。
// 已被评估引用的示例拒绝改动并返回 Conflict，划分保持不变。
func (s *Service) Reassign(ctx context.Context, exampleID, split string) (*model.Example, error) {
	if split != model.SplitTrain && split != model.SplitVal {
		return nil, types.PreconditionFailed("invalid split value: %s", split)
	}

	example, err := s.store.GetByID(exampleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("example not found: %s", exampleID)
		}
		return nil, err
	}

	locked, err := s.store.LockedExampleIDs(example.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load locked examples: %w", err)
	}
	if locked[exampleID] {
		return nil, types.Conflict("example %s is referenced by an evaluation and its split is locked", exampleID)
	}

	if err := s.store.UpdateSplit(exampleID, &split); err != nil {
		return nil, fmt.Errorf("failed to update split: %w", err)
	}

	example.Split = &split
	return example, nil
}

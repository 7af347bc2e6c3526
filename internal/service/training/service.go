// Package training 提供微调任务的生命周期管理：导出、上传、建任务、轮询、取消
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service/export"
	"github.com/ashwinyue/tunelab/internal/service/provider"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"gorm.io/gorm"
)

// ProviderClient 服务商协作方
type ProviderClient interface {
	UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error)
	CreateJob(ctx context.Context, fileID, baseModel string) (string, error)
	GetStatus(ctx context.Context, jobID string) (*provider.JobStatus, error)
	Cancel(ctx context.Context, jobID string) error
}

// RunStore 训练任务存取协作方
type RunStore interface {
	Create(run *model.TrainingRun) error
	GetByID(id string) (*model.TrainingRun, error)
	Update(run *model.TrainingRun) error
	ListByProject(projectID string) ([]*model.TrainingRun, error)
	ListCompleted(projectID string) ([]*model.TrainingRun, error)
}

// ExampleStore 示例读取协作方
type ExampleStore interface {
	ListBySplit(projectID, split string) ([]*model.Example, error)
}

// Service 训练服务
type Service struct {
	runs     RunStore
	examples ExampleStore
	provider ProviderClient
	cache    *StatusCache
}

// NewService 创建训练服务
func NewService(runs RunStore, examples ExampleStore, providerClient ProviderClient, cache *StatusCache) *Service {
	if cache == nil {
		cache = NewStatusCache(nil)
	}
	return &Service{runs: runs, examples: examples, provider: providerClient, cache: cache}
}

// Launch 启动一次微调：导出训练集 JSONL、上传、创建服务商任务。
// 各步骤的失败会落在任务记录上并作为错误返回。
func (s *Service) Launch(ctx context.Context, project *model.Project) (*model.TrainingRun, error) {
	trainExamples, err := s.examples.ListBySplit(project.ID, model.SplitTrain)
	if err != nil {
		return nil, fmt.Errorf("failed to load training examples: %w", err)
	}
	if len(trainExamples) == 0 {
		return nil, types.PreconditionFailed("no training examples in project %s, run a split first", project.ID)
	}

	valExamples, err := s.examples.ListBySplit(project.ID, model.SplitVal)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation examples: %w", err)
	}

	run := &model.TrainingRun{
		ProjectID:    project.ID,
		Status:       model.TrainingStatusPending,
		ExampleCount: len(trainExamples) + len(valExamples),
		TrainCount:   len(trainExamples),
		ValCount:     len(valExamples),
	}
	if err := s.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create training run: %w", err)
	}

	data, err := export.JSONL(trainExamples, project.SystemPrompt)
	if err != nil {
		return nil, s.fail(run, "export failed", err)
	}

	run.Status = model.TrainingStatusUploading
	if err := s.runs.Update(run); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s-train-%s.jsonl", project.ID, time.Now().Format("20060102150405"))
	fileID, err := s.provider.UploadTrainingFile(ctx, filename, data)
	if err != nil {
		return nil, s.fail(run, "file upload failed", err)
	}
	run.ProviderFileID = fileID

	jobID, err := s.provider.CreateJob(ctx, fileID, project.BaseModel)
	if err != nil {
		return nil, s.fail(run, "job creation failed", err)
	}

	run.ProviderJobID = jobID
	run.Status = model.TrainingStatusQueued
	if err := s.runs.Update(run); err != nil {
		return nil, err
	}
	return run, nil
}

// fail 把失败原因落在任务记录上并返回上游错误
func (s *Service) fail(run *model.TrainingRun, msg string, err error) error {
	reason := fmt.Sprintf("%s: %v", msg, err)
	run.Status = model.TrainingStatusFailed
	run.Error = &reason
	if uerr := s.runs.Update(run); uerr != nil {
		return uerr
	}
	return types.UpstreamGenerationFailed(msg, err)
}

// Refresh 轮询服务商并同步任务状态。
// 终态任务不再查询；非终态走短 TTL 缓存以免打满服务商接口。
func (s *Service) Refresh(ctx context.Context, runID string) (*model.TrainingRun, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Status.Terminal() || run.ProviderJobID == "" {
		return run, nil
	}

	status := s.cache.Get(ctx, run.ProviderJobID)
	if status == nil {
		status, err = s.provider.GetStatus(ctx, run.ProviderJobID)
		if err != nil {
			return nil, types.UpstreamGenerationFailed("status poll failed", err)
		}
		s.cache.Set(ctx, run.ProviderJobID, status)
	}

	mapped := MapProviderStatus(status.Status)
	changed := mapped != run.Status

	if mapped == model.TrainingStatusCompleted && status.FineTunedModel != "" {
		modelID := status.FineTunedModel
		run.ModelID = &modelID
	}
	if mapped == model.TrainingStatusFailed && status.Error != "" {
		reason := status.Error
		run.Error = &reason
	}

	if changed {
		run.Status = mapped
		if err := s.runs.Update(run); err != nil {
			return nil, err
		}
	}
	return run, nil
}

// Cancel 取消一个未到终态的训练任务
func (s *Service) Cancel(ctx context.Context, runID string) (*model.TrainingRun, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Status.Terminal() {
		return nil, types.PreconditionFailed("training run already %s", run.Status)
	}

	if run.ProviderJobID != "" {
		if err := s.provider.Cancel(ctx, run.ProviderJobID); err != nil {
			return nil, types.UpstreamGenerationFailed("cancel failed", err)
		}
		s.cache.Invalidate(ctx, run.ProviderJobID)
	}

	run.Status = model.TrainingStatusCancelled
	if err := s.runs.Update(run); err != nil {
		return nil, err
	}
	return run, nil
}

// List 列出项目下的训练任务
func (s *Service) List(ctx context.Context, projectID string) ([]*model.TrainingRun, error) {
	return s.runs.ListByProject(projectID)
}

// Get 获取单个训练任务
func (s *Service) Get(ctx context.Context, runID string) (*model.TrainingRun, error) {
	return s.getRun(runID)
}

// ModelChoice 评估可选的模型
type ModelChoice struct {
	Ref       string `json:"ref"`
	Kind      string `json:"kind"` // base / fine_tuned
	RunID     string `json:"run_id,omitempty"`
	TrainedAt string `json:"trained_at,omitempty"`
}

// ListModels 列出评估可选的模型：项目基线 + 已完成微调的产出
func (s *Service) ListModels(ctx context.Context, project *model.Project) ([]ModelChoice, error) {
	choices := []ModelChoice{}
	if project.BaseModel != "" {
		choices = append(choices, ModelChoice{Ref: project.BaseModel, Kind: "base"})
	}

	runs, err := s.runs.ListCompleted(project.ID)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		choices = append(choices, ModelChoice{
			Ref:       *run.ModelID,
			Kind:      "fine_tuned",
			RunID:     run.ID,
			TrainedAt: run.UpdatedAt.Format(time.RFC3339),
		})
	}
	return choices, nil
}

// getRun 读取任务并翻译未找到错误
func (s *Service) getRun(runID string) (*model.TrainingRun, error) {
	run, err := s.runs.GetByID(runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("training run not found: %s", runID)
		}
		return nil, err
	}
	return run, nil
}

// MapProviderStatus 把服务商任务状态映射为本地状态
func MapProviderStatus(status string) model.TrainingRunStatus {
	switch status {
	case "validating_files", "queued":
		return model.TrainingStatusQueued
	case "running":
		return model.TrainingStatusTraining
	case "succeeded":
		return model.TrainingStatusCompleted
	case "failed":
		return model.TrainingStatusFailed
	case "cancelled":
		return model.TrainingStatusCancelled
	default:
		return model.TrainingStatusQueued
	}
}

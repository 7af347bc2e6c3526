package repository

import (
	"github.com/ashwinyue/tunelab/internal/model"
	"gorm.io/gorm"
)

// TrainingRunRepository 训练任务仓库
type TrainingRunRepository struct {
	db *gorm.DB
}

// NewTrainingRunRepository 创建训练任务仓库
func NewTrainingRunRepository(db *gorm.DB) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// Create 创建训练任务
func (r *TrainingRunRepository) Create(run *model.TrainingRun) error {
	return r.db.Create(run).Error
}

// GetByID 根据ID获取训练任务
func (r *TrainingRunRepository) GetByID(id string) (*model.TrainingRun, error) {
	var run model.TrainingRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByProject 列出项目下的训练任务，创建时间倒序
func (r *TrainingRunRepository) ListByProject(projectID string) ([]*model.TrainingRun, error) {
	var runs []*model.TrainingRun
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

// ListCompleted 列出已完成且产出模型的训练任务
func (r *TrainingRunRepository) ListCompleted(projectID string) ([]*model.TrainingRun, error) {
	var runs []*model.TrainingRun
	err := r.db.Where("project_id = ? AND status = ? AND model_id IS NOT NULL",
		projectID, model.TrainingStatusCompleted).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

// Update 更新训练任务
func (r *TrainingRunRepository) Update(run *model.TrainingRun) error {
	return r.db.Save(run).Error
}

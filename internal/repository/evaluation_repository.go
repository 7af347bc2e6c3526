package repository

import (
	"github.com/ashwinyue/tunelab/internal/model"
	"gorm.io/gorm"
)

// EvaluationRepository 评估仓库
type EvaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository 创建评估仓库
func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// CreateRunWithItems 在一个事务内创建评估轮次与全部条目。
// 生成批次要么整体落库，要么什么都不写。
func (r *EvaluationRepository) CreateRunWithItems(run *model.EvaluationRun, items []*model.EvaluationItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, 100).Error
	})
}

// GetRun 根据ID获取评估轮次
func (r *EvaluationRepository) GetRun(id string) (*model.EvaluationRun, error) {
	var run model.EvaluationRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRunsByProject 列出项目下的评估轮次，创建时间倒序
func (r *EvaluationRepository) ListRunsByProject(projectID string) ([]*model.EvaluationRun, error) {
	var runs []*model.EvaluationRun
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

// ListCompletedRuns 列出项目下已完成的评估轮次，创建时间升序（趋势用）
func (r *EvaluationRepository) ListCompletedRuns(projectID string) ([]*model.EvaluationRun, error) {
	var runs []*model.EvaluationRun
	err := r.db.Where("project_id = ? AND status = ?", projectID, model.EvaluationStatusCompleted).
		Order("created_at ASC").
		Find(&runs).Error
	return runs, err
}

// ListItems 列出轮次下的全部条目，创建顺序稳定
func (r *EvaluationRepository) ListItems(runID string) ([]*model.EvaluationItem, error) {
	var items []*model.EvaluationItem
	err := r.db.Where("run_id = ?", runID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// GetItem 根据ID获取条目
func (r *EvaluationRepository) GetItem(id string) (*model.EvaluationItem, error) {
	var item model.EvaluationItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemScore 写入条目打分结果，重复提交为整体覆盖
func (r *EvaluationRepository) UpdateItemScore(item *model.EvaluationItem) error {
	return r.db.Model(&model.EvaluationItem{}).Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"preferred":      item.Preferred,
			"model_score":    item.ModelScore,
			"baseline_score": item.BaselineScore,
			"scored_at":      item.ScoredAt,
		}).Error
}

// CountUnscored 统计轮次下未打分条目数
func (r *EvaluationRepository) CountUnscored(runID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.EvaluationItem{}).
		Where("run_id = ? AND preferred IS NULL", runID).
		Count(&count).Error
	return count, err
}

// UpdateRunStatus 更新轮次状态
func (r *EvaluationRepository) UpdateRunStatus(runID string, status model.EvaluationRunStatus) error {
	return r.db.Model(&model.EvaluationRun{}).Where("id = ?", runID).
		Update("status", status).Error
}

// DeleteRun 删除评估轮次及其条目
func (r *EvaluationRepository) DeleteRun(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&model.EvaluationItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.EvaluationRun{}).Error
	})
}

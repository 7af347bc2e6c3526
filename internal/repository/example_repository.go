package repository

import (
	"github.com/ashwinyue/tunelab/internal/model"
	"gorm.io/gorm"
)

// ExampleRepository 示例仓库
type ExampleRepository struct {
	db *gorm.DB
}

// NewExampleRepository 创建示例仓库
func NewExampleRepository(db *gorm.DB) *ExampleRepository {
	return &ExampleRepository{db: db}
}

// Create 创建示例
func (r *ExampleRepository) Create(example *model.Example) error {
	return r.db.Create(example).Error
}

// GetByID 根据ID获取示例
func (r *ExampleRepository) GetByID(id string) (*model.Example, error) {
	var example model.Example
	err := r.db.Where("id = ?", id).First(&example).Error
	if err != nil {
		return nil, err
	}
	return &example, nil
}

// ListByProject 列出项目下的示例
func (r *ExampleRepository) ListByProject(projectID string, offset, limit int) ([]*model.Example, int64, error) {
	var examples []*model.Example
	var total int64

	q := r.db.Model(&model.Example{}).Where("project_id = ?", projectID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&examples).Error
	return examples, total, err
}

// ListForSplit 获取划分计算所需的全量示例，按创建时间升序保证确定性
func (r *ExampleRepository) ListForSplit(projectID string) ([]*model.Example, error) {
	var examples []*model.Example
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&examples).Error
	return examples, err
}

// ListBySplit 按划分值列出示例，创建时间升序
func (r *ExampleRepository) ListBySplit(projectID, split string) ([]*model.Example, error) {
	var examples []*model.Example
	err := r.db.Where("project_id = ? AND split = ?", projectID, split).
		Order("created_at ASC, id ASC").
		Find(&examples).Error
	return examples, err
}

// UpdateSplits 批量写回划分结果
func (r *ExampleRepository) UpdateSplits(assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for id, split := range assignments {
			if err := tx.Model(&model.Example{}).Where("id = ?", id).
				Update("split", split).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateSplit 更新单个示例的划分
func (r *ExampleRepository) UpdateSplit(id string, split *string) error {
	return r.db.Model(&model.Example{}).Where("id = ?", id).Update("split", split).Error
}

// LockedExampleIDs 返回项目下被任一评估轮次引用的示例ID集合。
// 这些示例的划分已锁定，不可再移动。
func (r *ExampleRepository) LockedExampleIDs(projectID string) (map[string]bool, error) {
	var ids []string
	err := r.db.Model(&model.EvaluationItem{}).
		Distinct("evaluation_items.example_id").
		Joins("JOIN evaluation_runs ON evaluation_runs.id = evaluation_items.run_id").
		Where("evaluation_runs.project_id = ?", projectID).
		Pluck("evaluation_items.example_id", &ids).Error
	if err != nil {
		return nil, err
	}

	locked := make(map[string]bool, len(ids))
	for _, id := range ids {
		locked[id] = true
	}
	return locked, nil
}

// Update 更新示例
func (r *ExampleRepository) Update(example *model.Example) error {
	return r.db.Save(example).Error
}

// Delete 删除示例
func (r *ExampleRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Example{}).Error
}

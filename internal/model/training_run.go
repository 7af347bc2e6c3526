package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainingRunStatus 训练任务状态
type TrainingRunStatus string

const (
	TrainingStatusPending   TrainingRunStatus = "pending"   // 待上传
	TrainingStatusUploading TrainingRunStatus = "uploading" // 上传训练文件中
	TrainingStatusQueued    TrainingRunStatus = "queued"    // 服务商排队中
	TrainingStatusTraining  TrainingRunStatus = "training"  // 训练中
	TrainingStatusCompleted TrainingRunStatus = "completed" // 已完成
	TrainingStatusFailed    TrainingRunStatus = "failed"    // 失败
	TrainingStatusCancelled TrainingRunStatus = "cancelled" // 已取消
)

// Terminal 是否为终态
func (s TrainingRunStatus) Terminal() bool {
	switch s {
	case TrainingStatusCompleted, TrainingStatusFailed, TrainingStatusCancelled:
		return true
	}
	return false
}

// TrainingRun 微调任务，状态由轮询服务商驱动
type TrainingRun struct {
	ID        string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string            `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Status    TrainingRunStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`

	// 划分统计，启动时落库以便历史任务可追溯
	ExampleCount int `json:"example_count" gorm:"default:0"`
	TrainCount   int `json:"train_count" gorm:"default:0"`
	ValCount     int `json:"val_count" gorm:"default:0"`

	// 服务商侧标识
	ProviderFileID string `json:"provider_file_id,omitempty" gorm:"type:varchar(128)"`
	ProviderJobID  string `json:"provider_job_id,omitempty" gorm:"type:varchar(128);index"`
	// ModelID 训练完成后产出的模型标识
	ModelID *string `json:"model_id,omitempty" gorm:"type:varchar(128)"`
	Error   *string `json:"error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (r *TrainingRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (TrainingRun) TableName() string {
	return "training_runs"
}

// Package model 提供评估相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationRunStatus 评估轮次状态
type EvaluationRunStatus string

const (
	EvaluationStatusScoring   EvaluationRunStatus = "scoring"   // 等待打分
	EvaluationStatusCompleted EvaluationRunStatus = "completed" // 全部条目已打分
)

// Preference 偏好取值
const (
	PreferModel    = "model"
	PreferBaseline = "baseline"
	PreferTie      = "tie"
)

// EvaluationRun 一次盲测评估：微调模型 vs 基线模型
type EvaluationRun struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string `json:"project_id" gorm:"type:varchar(36);not null;index"`
	// ModelRef 被评估的微调模型标识，BaselineRef 基线模型标识
	ModelRef    string `json:"model_ref" gorm:"type:varchar(128);not null"`
	BaselineRef string `json:"baseline_ref" gorm:"type:varchar(128);not null"`
	// SystemPrompt 生成两侧补全时共用的系统提示词
	SystemPrompt string              `json:"system_prompt" gorm:"type:text"`
	Status       EvaluationRunStatus `json:"status" gorm:"type:varchar(20);default:'scoring'"`
	ItemCount    int                 `json:"item_count" gorm:"default:0"`
	CreatedAt    time.Time           `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time           `json:"updated_at" gorm:"autoUpdateTime"`

	Items []EvaluationItem `json:"items,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (r *EvaluationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (EvaluationRun) TableName() string {
	return "evaluation_runs"
}

// EvaluationItem 评估条目，每个验证集示例一条
type EvaluationItem struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	RunID     string `json:"run_id" gorm:"type:varchar(36);not null;index"`
	ExampleID string `json:"example_id" gorm:"type:varchar(36);not null;index"`

	ModelOutput    string `json:"model_output" gorm:"type:text"`
	BaselineOutput string `json:"baseline_output" gorm:"type:text"`

	// IsLeftModel 盲测展示时微调模型输出是否在左侧。
	// 创建时由条目 ID 的哈希计算一次后落库，之后只读，避免重复推导产生不一致。
	IsLeftModel bool `json:"is_left_model"`

	// Preferred model/baseline/tie，nil 表示未打分
	Preferred     *string    `json:"preferred,omitempty" gorm:"type:varchar(10)"`
	ModelScore    *int       `json:"model_score,omitempty"`
	BaselineScore *int       `json:"baseline_score,omitempty"`
	ScoredAt      *time.Time `json:"scored_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (EvaluationItem) TableName() string {
	return "evaluation_items"
}

// Scored 是否已打分
func (i *EvaluationItem) Scored() bool {
	return i.Preferred != nil
}

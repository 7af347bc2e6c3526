package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project 项目，示例与训练的归属单元
type Project struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	// BaseModel 项目的基线模型，评估时作为 baseline 的默认取值
	BaseModel string `json:"base_model" gorm:"type:varchar(128)"`
	// SystemPrompt 项目级系统提示词，导出与评估生成时共用
	SystemPrompt string    `json:"system_prompt" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

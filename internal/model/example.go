// Package model 提供数据集整理相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Split 划分取值
const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// Example 监督样本（输入/输出对）
type Example struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Input     string `json:"input" gorm:"type:text;not null"`
	Output    string `json:"output" gorm:"type:text;not null"`
	// Rewrite 人工或助手修订后的输出，导出时优先于 Output
	Rewrite *string `json:"rewrite,omitempty" gorm:"type:text"`
	// Rating 1-10 评分，nil 表示未评分
	Rating *int `json:"rating,omitempty"`
	// Split train/val，nil 表示未划分
	Split     *string    `json:"split,omitempty" gorm:"type:varchar(10);index"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	RatedAt   *time.Time `json:"rated_at,omitempty"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (e *Example) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Example) TableName() string {
	return "examples"
}

// Rated 是否已评分
func (e *Example) Rated() bool {
	return e.Rating != nil
}

// SplitValue 返回划分值，未划分返回空字符串
func (e *Example) SplitValue() string {
	if e.Split == nil {
		return ""
	}
	return *e.Split
}

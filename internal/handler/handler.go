package handler

import (
	"github.com/ashwinyue/tunelab/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Project    *ProjectHandler
	Example    *ExampleHandler
	Split      *SplitHandler
	Training   *TrainingHandler
	Evaluation *EvaluationHandler
	System     *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Project:    NewProjectHandler(svc),
		Example:    NewExampleHandler(svc),
		Split:      NewSplitHandler(svc),
		Training:   NewTrainingHandler(svc),
		Evaluation: NewEvaluationHandler(svc),
		System:     NewSystemHandler(svc),
	}
}

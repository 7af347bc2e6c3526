package handler

import (
	"github.com/ashwinyue/tunelab/internal/service"
	"github.com/gin-gonic/gin"
)

// TrainingHandler 训练任务处理器
type TrainingHandler struct {
	svc *service.Services
}

// NewTrainingHandler 创建训练任务处理器
func NewTrainingHandler(svc *service.Services) *TrainingHandler {
	return &TrainingHandler{svc: svc}
}

// LaunchTrainingRun 启动微调任务
func (h *TrainingHandler) LaunchTrainingRun(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := h.svc.Project.Get(ctx, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	run, err := h.svc.Training.Launch(ctx, project)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, run)
}

// ListTrainingRuns 列出项目下的训练任务
func (h *TrainingHandler) ListTrainingRuns(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	if _, err := h.svc.Project.Get(ctx, projectID); err != nil {
		Error(c, err)
		return
	}

	runs, err := h.svc.Training.List(ctx, projectID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, runs)
}

// GetTrainingRun 获取训练任务（附带一次状态轮询）
func (h *TrainingHandler) GetTrainingRun(c *gin.Context) {
	run, err := h.svc.Training.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, run)
}

// CancelTrainingRun 取消训练任务
func (h *TrainingHandler) CancelTrainingRun(c *gin.Context) {
	run, err := h.svc.Training.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, run)
}

// ListModels 列出评估可选的模型
func (h *TrainingHandler) ListModels(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := h.svc.Project.Get(ctx, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	models, err := h.svc.Training.ListModels(ctx, project)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, models)
}

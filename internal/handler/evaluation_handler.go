// Package handler 提供评估相关的 HTTP 处理器
package handler

import (
	"github.com/ashwinyue/tunelab/internal/service"
	"github.com/ashwinyue/tunelab/internal/service/evaluation"
	"github.com/gin-gonic/gin"
)

// EvaluationHandler 评估处理器
type EvaluationHandler struct {
	svc *service.Services
}

// NewEvaluationHandler 创建评估处理器
func NewEvaluationHandler(svc *service.Services) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

// StartEvaluation 对项目验证集发起一轮盲测评估
func (h *EvaluationHandler) StartEvaluation(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := h.svc.Project.Get(ctx, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	var req evaluation.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	run, err := h.svc.Evaluation.Start(ctx, project, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, run)
}

// ListEvaluations 列出项目下的评估轮次
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	if _, err := h.svc.Project.Get(ctx, projectID); err != nil {
		Error(c, err)
		return
	}

	runs, err := h.svc.Evaluation.ListRuns(ctx, projectID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, runs)
}

// GetEvaluationResults 获取一轮评估的聚合结果
func (h *EvaluationHandler) GetEvaluationResults(c *gin.Context) {
	results, err := h.svc.Evaluation.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, results)
}

// GetBlindItems 获取打分界面使用的盲测条目
func (h *EvaluationHandler) GetBlindItems(c *gin.Context) {
	items, err := h.svc.Evaluation.BlindItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, items)
}

// ScoreItem 记录一条打分
func (h *EvaluationHandler) ScoreItem(c *gin.Context) {
	var req evaluation.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	item, err := h.svc.Evaluation.Score(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, item)
}

// GetTrend 获取项目评估的历史趋势
func (h *EvaluationHandler) GetTrend(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	if _, err := h.svc.Project.Get(ctx, projectID); err != nil {
		Error(c, err)
		return
	}

	points, err := h.svc.Evaluation.Trend(ctx, projectID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, points)
}

// Package handler 提供划分与导出相关的 HTTP 处理器
package handler

import (
	"fmt"
	"net/http"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service"
	"github.com/ashwinyue/tunelab/internal/service/export"
	"github.com/ashwinyue/tunelab/internal/service/split"
	"github.com/gin-gonic/gin"
)

// SplitHandler 划分处理器
type SplitHandler struct {
	svc *service.Services
}

// NewSplitHandler 创建划分处理器
func NewSplitHandler(svc *service.Services) *SplitHandler {
	return &SplitHandler{svc: svc}
}

// RunSplit 对项目执行一次划分
func (h *SplitHandler) RunSplit(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	if _, err := h.svc.Project.Get(ctx, projectID); err != nil {
		Error(c, err)
		return
	}

	// 空请求体等价于默认参数
	var opts split.Options
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	plan, err := h.svc.Split.Run(ctx, projectID, opts)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, plan)
}

// ReassignRequest 显式改动单个示例划分的请求
type ReassignRequest struct {
	Split string `json:"split" binding:"required"`
}

// ReassignSplit 显式改动单个示例的划分，锁定示例返回 409
func (h *SplitHandler) ReassignSplit(c *gin.Context) {
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ex, err := h.svc.Split.Reassign(c.Request.Context(), c.Param("id"), req.Split)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, ex)
}

// ExportJSONL 导出项目某一划分的 JSONL 文件
func (h *SplitHandler) ExportJSONL(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	project, err := h.svc.Project.Get(ctx, projectID)
	if err != nil {
		Error(c, err)
		return
	}

	splitValue := c.DefaultQuery("split", model.SplitTrain)
	if splitValue != model.SplitTrain && splitValue != model.SplitVal {
		BadRequest(c, fmt.Sprintf("invalid split value: %s", splitValue))
		return
	}

	examples, err := h.svc.Example.ListBySplit(ctx, projectID, splitValue)
	if err != nil {
		Error(c, err)
		return
	}

	data, err := export.JSONL(examples, project.SystemPrompt)
	if err != nil {
		Error(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.jsonl", projectID, splitValue)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/jsonl", data)
}

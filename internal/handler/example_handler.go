package handler

import (
	"strconv"

	"github.com/ashwinyue/tunelab/internal/service"
	"github.com/ashwinyue/tunelab/internal/service/example"
	"github.com/gin-gonic/gin"
)

// ExampleHandler 示例处理器
type ExampleHandler struct {
	svc *service.Services
}

// NewExampleHandler 创建示例处理器
func NewExampleHandler(svc *service.Services) *ExampleHandler {
	return &ExampleHandler{svc: svc}
}

// CreateExample 在项目下创建示例
func (h *ExampleHandler) CreateExample(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	if _, err := h.svc.Project.Get(ctx, projectID); err != nil {
		Error(c, err)
		return
	}

	var req example.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ex, err := h.svc.Example.Create(ctx, projectID, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, ex)
}

// ListExamples 列出项目下的示例
func (h *ExampleHandler) ListExamples(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

	examples, total, err := h.svc.Example.List(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, examples, total, page, size)
}

// GetExample 获取示例
func (h *ExampleHandler) GetExample(c *gin.Context) {
	ex, err := h.svc.Example.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, ex)
}

// UpdateExample 更新示例
func (h *ExampleHandler) UpdateExample(c *gin.Context) {
	var req example.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ex, err := h.svc.Example.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, ex)
}

// DeleteExample 删除示例
func (h *ExampleHandler) DeleteExample(c *gin.Context) {
	if err := h.svc.Example.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}

// RateExample 为示例评分
func (h *ExampleHandler) RateExample(c *gin.Context) {
	var req example.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ex, err := h.svc.Example.Rate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, ex)
}

// SuggestRewrite 生成示例的改写建议
func (h *ExampleHandler) SuggestRewrite(c *gin.Context) {
	suggestion, err := h.svc.Example.SuggestRewrite(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, suggestion)
}

package handler

import (
	"strconv"

	"github.com/ashwinyue/tunelab/internal/service"
	"github.com/ashwinyue/tunelab/internal/service/project"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	svc *service.Services
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(svc *service.Services) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req project.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Project.Create(c.Request.Context(), &req, h.svc.Config.Provider.BaseModel)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, p)
}

// ListProjects 列出项目
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	projects, total, err := h.svc.Project.List(c.Request.Context(), page, size)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, projects, total, page, size)
}

// GetProject 获取项目
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.svc.Project.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, p)
}

// UpdateProject 更新项目
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req project.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Project.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, p)
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.svc.Project.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}

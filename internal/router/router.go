package router

import (
	"github.com/ashwinyue/tunelab/internal/handler"
	"github.com/ashwinyue/tunelab/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", h.System.Health)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Project 项目
		projects := v1.Group("/projects")
		{
			projects.POST("", h.Project.CreateProject)
			projects.GET("", h.Project.ListProjects)
			projects.GET("/:id", h.Project.GetProject)
			projects.PUT("/:id", h.Project.UpdateProject)
			projects.DELETE("/:id", h.Project.DeleteProject)

			// 示例录入与浏览
			projects.POST("/:id/examples", h.Example.CreateExample)
			projects.GET("/:id/examples", h.Example.ListExamples)

			// 划分与导出
			projects.POST("/:id/split", h.Split.RunSplit)
			projects.GET("/:id/export", h.Split.ExportJSONL)

			// 训练
			projects.POST("/:id/training-runs", h.Training.LaunchTrainingRun)
			projects.GET("/:id/training-runs", h.Training.ListTrainingRuns)
			projects.GET("/:id/models", h.Training.ListModels)

			// 评估
			projects.POST("/:id/evaluations", h.Evaluation.StartEvaluation)
			projects.GET("/:id/evaluations", h.Evaluation.ListEvaluations)
			projects.GET("/:id/evaluations/trend", h.Evaluation.GetTrend)
		}

		// Example 示例
		examples := v1.Group("/examples")
		{
			examples.GET("/:id", h.Example.GetExample)
			examples.PUT("/:id", h.Example.UpdateExample)
			examples.DELETE("/:id", h.Example.DeleteExample)
			examples.POST("/:id/rating", h.Example.RateExample)
			examples.POST("/:id/rewrite", h.Example.SuggestRewrite)
			examples.PUT("/:id/split", h.Split.ReassignSplit)
		}

		// TrainingRun 训练任务
		trainingRuns := v1.Group("/training-runs")
		{
			trainingRuns.GET("/:id", h.Training.GetTrainingRun)
			trainingRuns.POST("/:id/cancel", h.Training.CancelTrainingRun)
		}

		// Evaluation 评估
		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("/:id", h.Evaluation.GetEvaluationResults)
			evaluations.GET("/:id/items", h.Evaluation.GetBlindItems)
		}

		// EvaluationItem 评估条目
		items := v1.Group("/evaluation-items")
		{
			items.POST("/:id/score", h.Evaluation.ScoreItem)
		}
	}

	return r
}

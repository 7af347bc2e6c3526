package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Generator 补全生成协作方（服务商客户端）
type Generator interface {
	Chat(ctx context.Context, modelRef, systemPrompt, input string) (string, error)
}

// Store 评估记录存取协作方
type Store interface {
	CreateRunWithItems(run *model.EvaluationRun, items []*model.EvaluationItem) error
	GetRun(id string) (*model.EvaluationRun, error)
	ListRunsByProject(projectID string) ([]*model.EvaluationRun, error)
	ListCompletedRuns(projectID string) ([]*model.EvaluationRun, error)
	ListItems(runID string) ([]*model.EvaluationItem, error)
	GetItem(id string) (*model.EvaluationItem, error)
	UpdateItemScore(item *model.EvaluationItem) error
	CountUnscored(runID string) (int64, error)
	UpdateRunStatus(runID string, status model.EvaluationRunStatus) error
}

// ExampleStore 示例读取协作方
type ExampleStore interface {
	ListBySplit(projectID, split string) ([]*model.Example, error)
	GetByID(id string) (*model.Example, error)
}

// Service 评估服务
type Service struct {
	store    Store
	examples ExampleStore
	gen      Generator
	// workers 生成批次的并发上限，遵守服务商限流
	workers int
}

// NewService 创建评估服务
func NewService(store Store, examples ExampleStore, gen Generator, workers int) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{store: store, examples: examples, gen: gen, workers: workers}
}

// StartRequest 发起评估请求
type StartRequest struct {
	ModelRef    string `json:"model_ref" binding:"required"`
	BaselineRef string `json:"baseline_ref"`
}

// Start 对项目的验证集发起一轮盲测评估。
// 生成整批完成后一次性落库；任一补全失败则整批终止，不留半成品数据。
func (s *Service) Start(ctx context.Context, project *model.Project, req *StartRequest) (*model.EvaluationRun, error) {
	baselineRef := req.BaselineRef
	if baselineRef == "" {
		baselineRef = project.BaseModel
	}
	if req.ModelRef == baselineRef {
		return nil, types.PreconditionFailed("models must differ: %s", req.ModelRef)
	}

	valExamples, err := s.examples.ListBySplit(project.ID, model.SplitVal)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation examples: %w", err)
	}
	if len(valExamples) == 0 {
		return nil, types.PreconditionFailed("no validation examples in project %s", project.ID)
	}

	modelOutputs, baselineOutputs, err := s.generate(ctx, valExamples, req.ModelRef, baselineRef, project.SystemPrompt)
	if err != nil {
		return nil, err
	}

	run := &model.EvaluationRun{
		ID:           uuid.New().String(),
		ProjectID:    project.ID,
		ModelRef:     req.ModelRef,
		BaselineRef:  baselineRef,
		SystemPrompt: project.SystemPrompt,
		Status:       model.EvaluationStatusScoring,
		ItemCount:    len(valExamples),
	}

	items := make([]*model.EvaluationItem, 0, len(valExamples))
	for i, ex := range valExamples {
		itemID := uuid.New().String()
		items = append(items, &model.EvaluationItem{
			ID:             itemID,
			RunID:          run.ID,
			ExampleID:      ex.ID,
			ModelOutput:    modelOutputs[i],
			BaselineOutput: baselineOutputs[i],
			// 盲侧排布在创建时计算一次，此后只读
			IsLeftModel: SideIsLeftModel(itemID),
		})
	}

	if err := s.store.CreateRunWithItems(run, items); err != nil {
		return nil, fmt.Errorf("failed to persist evaluation: %w", err)
	}

	return run, nil
}

// generate 并发生成两侧补全，首个失败即取消剩余调用并丢弃全部结果
func (s *Service) generate(ctx context.Context, examples []*model.Example, modelRef, baselineRef, systemPrompt string) ([]string, []string, error) {
	modelOutputs := make([]string, len(examples))
	baselineOutputs := make([]string, len(examples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, ex := range examples {
		g.Go(func() error {
			out, err := s.gen.Chat(gctx, modelRef, systemPrompt, ex.Input)
			if err != nil {
				return fmt.Errorf("model completion for example %s: %w", ex.ID, err)
			}
			modelOutputs[i] = out

			out, err = s.gen.Chat(gctx, baselineRef, systemPrompt, ex.Input)
			if err != nil {
				return fmt.Errorf("baseline completion for example %s: %w", ex.ID, err)
			}
			baselineOutputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, types.UpstreamGenerationFailed("generation failed, evaluation aborted", err)
	}
	return modelOutputs, baselineOutputs, nil
}

// ScoreRequest 条目打分请求，左右视角
type ScoreRequest struct {
	Preferred  string `json:"preferred" binding:"required"` // left/right/tie
	LeftScore  *int   `json:"left_score"`
	RightScore *int   `json:"right_score"`
}

// Score 记录一次打分。左右选择按条目的盲侧排布翻译为 model/baseline；
// 重复提交是整体覆盖，未带的评分字段会被清空。
func (s *Service) Score(ctx context.Context, itemID string, req *ScoreRequest) (*model.EvaluationItem, error) {
	for _, score := range []*int{req.LeftScore, req.RightScore} {
		if score != nil && (*score < 1 || *score > 10) {
			return nil, types.PreconditionFailed("score must be between 1 and 10, got %d", *score)
		}
	}

	item, err := s.store.GetItem(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("evaluation item not found: %s", itemID)
		}
		return nil, err
	}

	preferred, err := TranslatePreference(item.IsLeftModel, req.Preferred)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.Preferred = &preferred
	item.ModelScore, item.BaselineScore = TranslateScores(item.IsLeftModel, req.LeftScore, req.RightScore)
	item.ScoredAt = &now

	if err := s.store.UpdateItemScore(item); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	// 全部条目打分后轮次进入完成态
	unscored, err := s.store.CountUnscored(item.RunID)
	if err != nil {
		return nil, err
	}
	if unscored == 0 {
		if err := s.store.UpdateRunStatus(item.RunID, model.EvaluationStatusCompleted); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// GetRun 获取评估轮次
func (s *Service) GetRun(ctx context.Context, runID string) (*model.EvaluationRun, error) {
	run, err := s.store.GetRun(runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("evaluation run not found: %s", runID)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns 列出项目下的评估轮次
func (s *Service) ListRuns(ctx context.Context, projectID string) ([]*model.EvaluationRun, error) {
	return s.store.ListRunsByProject(projectID)
}

// Results 聚合一轮评估的结果，即读即算
func (s *Service) Results(ctx context.Context, runID string) (*Results, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(runID)
	if err != nil {
		return nil, err
	}
	return Aggregate(runID, items), nil
}

// BlindItem 打分界面使用的盲测视图，不暴露左右与模型的对应关系
type BlindItem struct {
	ID          string `json:"id"`
	ExampleID   string `json:"example_id"`
	Input       string `json:"input"`
	LeftOutput  string `json:"left_output"`
	RightOutput string `json:"right_output"`
	Scored      bool   `json:"scored"`
}

// BlindItems 返回轮次条目的盲测视图。
// 排布来自条目创建时落库的盲侧字段，同一条目任何时刻读取结果一致。
func (s *Service) BlindItems(ctx context.Context, runID string) ([]BlindItem, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(runID)
	if err != nil {
		return nil, err
	}

	blind := make([]BlindItem, 0, len(items))
	for _, item := range items {
		b := BlindItem{
			ID:        item.ID,
			ExampleID: item.ExampleID,
			Scored:    item.Scored(),
		}
		if ex, err := s.examples.GetByID(item.ExampleID); err == nil {
			b.Input = ex.Input
		}
		if item.IsLeftModel {
			b.LeftOutput, b.RightOutput = item.ModelOutput, item.BaselineOutput
		} else {
			b.LeftOutput, b.RightOutput = item.BaselineOutput, item.ModelOutput
		}
		blind = append(blind, b)
	}
	return blind, nil
}

// TrendPoint 历史趋势中的一个点（一轮完成的评估）
type TrendPoint struct {
	Index     int       `json:"index"`
	RunID     string    `json:"run_id"`
	ModelRef  string    `json:"model_ref"`
	CreatedAt time.Time `json:"created_at"`
	// WinRate 微调模型胜率（胜数/已打分数），无打分条目时为 nil
	WinRate          *float64 `json:"win_rate,omitempty"`
	AvgModelScore    *float64 `json:"avg_model_score,omitempty"`
	AvgBaselineScore *float64 `json:"avg_baseline_score,omitempty"`
}

// Trend 跨轮次的历史趋势，按创建时间排序的只读投影
func (s *Service) Trend(ctx context.Context, projectID string) ([]TrendPoint, error) {
	runs, err := s.store.ListCompletedRuns(projectID)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, run := range runs {
		items, err := s.store.ListItems(run.ID)
		if err != nil {
			return nil, err
		}
		res := Aggregate(run.ID, items)

		point := TrendPoint{
			Index:            i,
			RunID:            run.ID,
			ModelRef:         run.ModelRef,
			CreatedAt:        run.CreatedAt,
			AvgModelScore:    res.AvgModelScore,
			AvgBaselineScore: res.AvgBaselineScore,
		}
		if res.ScoredCount > 0 {
			rate := float64(res.ModelWins) / float64(res.ScoredCount)
			point.WinRate = &rate
		}
		points = append(points, point)
	}
	return points, nil
}

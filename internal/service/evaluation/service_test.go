package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service/types"
	"gorm.io/gorm"
)

// fakeGenerator 确定性生成器，可指定失败的模型引用
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	failRef  string
	failWith error
}

func (g *fakeGenerator) Chat(ctx context.Context, modelRef, systemPrompt, input string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.failRef != "" && modelRef == g.failRef {
		return "", g.failWith
	}
	return fmt.Sprintf("%s::%s", modelRef, input), nil
}

// fakeStore 内存评估存储
type fakeStore struct {
	mu       sync.Mutex
	runs     []*model.EvaluationRun
	items    map[string][]*model.EvaluationItem // runID -> items
	statuses map[string]model.EvaluationRunStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:    map[string][]*model.EvaluationItem{},
		statuses: map[string]model.EvaluationRunStatus{},
	}
}

func (s *fakeStore) CreateRunWithItems(run *model.EvaluationRun, items []*model.EvaluationItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	s.items[run.ID] = items
	return nil
}

func (s *fakeStore) GetRun(id string) (*model.EvaluationRun, error) {
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) ListRunsByProject(projectID string) ([]*model.EvaluationRun, error) {
	var out []*model.EvaluationRun
	for _, run := range s.runs {
		if run.ProjectID == projectID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCompletedRuns(projectID string) ([]*model.EvaluationRun, error) {
	var out []*model.EvaluationRun
	for _, run := range s.runs {
		if run.ProjectID == projectID && run.Status == model.EvaluationStatusCompleted {
			out = append(out, run)
		}
	}
	return out, nil
}

func (s *fakeStore) ListItems(runID string) ([]*model.EvaluationItem, error) {
	return s.items[runID], nil
}

func (s *fakeStore) GetItem(id string) (*model.EvaluationItem, error) {
	for _, items := range s.items {
		for _, item := range items {
			if item.ID == id {
				return item, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) UpdateItemScore(item *model.EvaluationItem) error {
	items := s.items[item.RunID]
	for i, existing := range items {
		if existing.ID == item.ID {
			items[i] = item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeStore) CountUnscored(runID string) (int64, error) {
	var n int64
	for _, item := range s.items[runID] {
		if item.Preferred == nil {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpdateRunStatus(runID string, status model.EvaluationRunStatus) error {
	for _, run := range s.runs {
		if run.ID == runID {
			run.Status = status
			s.statuses[runID] = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeExamples 内存示例读取
type fakeExamples struct {
	bySplit map[string][]*model.Example
}

func (f *fakeExamples) ListBySplit(projectID, split string) ([]*model.Example, error) {
	return f.bySplit[split], nil
}

func (f *fakeExamples) GetByID(id string) (*model.Example, error) {
	for _, examples := range f.bySplit {
		for _, ex := range examples {
			if ex.ID == id {
				return ex, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func valExamples(n int) *fakeExamples {
	examples := make([]*model.Example, 0, n)
	for i := 0; i < n; i++ {
		examples = append(examples, &model.Example{
			ID:        fmt.Sprintf("ex-%02d", i),
			ProjectID: "proj-1",
			Input:     fmt.Sprintf("question %d", i),
			Output:    fmt.Sprintf("answer %d", i),
		})
	}
	return &fakeExamples{bySplit: map[string][]*model.Example{model.SplitVal: examples}}
}

func testProject() *model.Project {
	return &model.Project{
		ID:           "proj-1",
		Name:         "客服问答",
		BaseModel:    "gpt-4o-mini",
		SystemPrompt: "你是客服助手",
	}
}

func TestStart_CreatesRunAndItems(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewService(store, valExamples(3), gen, 2)

	run, err := svc.Start(context.Background(), testProject(), &StartRequest{ModelRef: "ft:gpt-4o-mini:abc"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if run.Status != model.EvaluationStatusScoring {
		t.Errorf("Status = %s, want scoring", run.Status)
	}
	if run.BaselineRef != "gpt-4o-mini" {
		t.Errorf("BaselineRef = %s, want project base model", run.BaselineRef)
	}
	if run.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", run.ItemCount)
	}

	items := store.items[run.ID]
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for _, item := range items {
		// 盲侧排布与条目 ID 的哈希一致，且创建后只读
		if item.IsLeftModel != SideIsLeftModel(item.ID) {
			t.Errorf("item %s: IsLeftModel inconsistent with ID hash", item.ID)
		}
		wantModel := "ft:gpt-4o-mini:abc::question"
		if len(item.ModelOutput) < len(wantModel) || item.ModelOutput[:len(wantModel)] != wantModel {
			t.Errorf("ModelOutput = %s, want prefix %s", item.ModelOutput, wantModel)
		}
		if item.Preferred != nil {
			t.Error("new item should be unscored")
		}
	}
}

func TestStart_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		examples *fakeExamples
		req      *StartRequest
	}{
		{"无验证集示例", valExamples(0), &StartRequest{ModelRef: "ft:x"}},
		{"模型与基线相同", valExamples(2), &StartRequest{ModelRef: "gpt-4o-mini"}},
		{"显式基线与模型相同", valExamples(2), &StartRequest{ModelRef: "ft:x", BaselineRef: "ft:x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, tt.examples, &fakeGenerator{}, 2)

			_, err := svc.Start(context.Background(), testProject(), tt.req)
			if !types.IsKind(err, types.KindPreconditionFailed) {
				t.Fatalf("Start() error = %v, want precondition failed", err)
			}
			if len(store.runs) != 0 {
				t.Error("run was persisted despite precondition failure")
			}
		})
	}
}

func TestStart_GenerationFailureLeavesNothing(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{failRef: "gpt-4o-mini", failWith: errors.New("rate limited")}
	svc := NewService(store, valExamples(4), gen, 2)

	_, err := svc.Start(context.Background(), testProject(), &StartRequest{ModelRef: "ft:gpt-4o-mini:abc"})

	if !types.IsKind(err, types.KindUpstreamGenerationFailed) {
		t.Fatalf("Start() error = %v, want upstream generation failed", err)
	}
	// 全有或全无：任何失败都不留下半成品轮次
	if len(store.runs) != 0 {
		t.Errorf("runs persisted = %d, want 0", len(store.runs))
	}
	if len(store.items) != 0 {
		t.Errorf("item batches persisted = %d, want 0", len(store.items))
	}
}

func startScoringRun(t *testing.T, n int) (*Service, *fakeStore, *model.EvaluationRun) {
	t.Helper()
	store := newFakeStore()
	svc := NewService(store, valExamples(n), &fakeGenerator{}, 2)
	run, err := svc.Start(context.Background(), testProject(), &StartRequest{ModelRef: "ft:gpt-4o-mini:abc"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return svc, store, run
}

func TestScore_TranslatesBySide(t *testing.T) {
	svc, store, run := startScoringRun(t, 2)
	item := store.items[run.ID][0]

	scored, err := svc.Score(context.Background(), item.ID, &ScoreRequest{
		Preferred: SideLeft,
		LeftScore: intPtr(9), RightScore: intPtr(4),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if item.IsLeftModel {
		if *scored.Preferred != model.PreferModel || *scored.ModelScore != 9 || *scored.BaselineScore != 4 {
			t.Errorf("left-model item scored as %s %d/%d", *scored.Preferred, *scored.ModelScore, *scored.BaselineScore)
		}
	} else {
		if *scored.Preferred != model.PreferBaseline || *scored.ModelScore != 4 || *scored.BaselineScore != 9 {
			t.Errorf("right-model item scored as %s %d/%d", *scored.Preferred, *scored.ModelScore, *scored.BaselineScore)
		}
	}
	if scored.ScoredAt == nil {
		t.Error("ScoredAt not set")
	}
}

func TestScore_ResubmitOverwrites(t *testing.T) {
	svc, store, run := startScoringRun(t, 2)
	item := store.items[run.ID][0]

	if _, err := svc.Score(context.Background(), item.ID, &ScoreRequest{
		Preferred: SideLeft,
		LeftScore: intPtr(9), RightScore: intPtr(4),
	}); err != nil {
		t.Fatalf("first Score() error = %v", err)
	}

	// 第二次提交不带评分：整体覆盖，旧评分必须清空
	scored, err := svc.Score(context.Background(), item.ID, &ScoreRequest{Preferred: SideTie})
	if err != nil {
		t.Fatalf("second Score() error = %v", err)
	}

	if *scored.Preferred != model.PreferTie {
		t.Errorf("Preferred = %s, want tie", *scored.Preferred)
	}
	if scored.ModelScore != nil || scored.BaselineScore != nil {
		t.Error("stale scores survived overwrite")
	}
}

func TestScore_Validation(t *testing.T) {
	svc, store, run := startScoringRun(t, 1)
	item := store.items[run.ID][0]

	tests := []struct {
		name string
		id   string
		req  *ScoreRequest
		kind types.ErrorKind
	}{
		{"评分超出范围", item.ID, &ScoreRequest{Preferred: SideLeft, LeftScore: intPtr(11)}, types.KindPreconditionFailed},
		{"评分低于下限", item.ID, &ScoreRequest{Preferred: SideLeft, RightScore: intPtr(0)}, types.KindPreconditionFailed},
		{"非法侧别", item.ID, &ScoreRequest{Preferred: "both"}, types.KindPreconditionFailed},
		{"条目不存在", "missing", &ScoreRequest{Preferred: SideTie}, types.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Score(context.Background(), tt.id, tt.req)
			if !types.IsKind(err, tt.kind) {
				t.Fatalf("Score() error = %v, want kind %d", err, tt.kind)
			}
		})
	}
}

func TestScore_CompletesRunWhenAllScored(t *testing.T) {
	svc, store, run := startScoringRun(t, 3)

	items := store.items[run.ID]
	for i, item := range items {
		if _, err := svc.Score(context.Background(), item.ID, &ScoreRequest{Preferred: SideTie}); err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		got, _ := store.GetRun(run.ID)
		if i < len(items)-1 && got.Status != model.EvaluationStatusScoring {
			t.Errorf("after %d scores: Status = %s, want scoring", i+1, got.Status)
		}
	}

	got, _ := store.GetRun(run.ID)
	if got.Status != model.EvaluationStatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}
}

func TestBlindItems_HideSideMapping(t *testing.T) {
	svc, store, run := startScoringRun(t, 3)

	blind, err := svc.BlindItems(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("BlindItems() error = %v", err)
	}
	if len(blind) != 3 {
		t.Fatalf("blind items = %d, want 3", len(blind))
	}

	byID := map[string]*model.EvaluationItem{}
	for _, item := range store.items[run.ID] {
		byID[item.ID] = item
	}

	for _, b := range blind {
		item := byID[b.ID]
		if item.IsLeftModel {
			if b.LeftOutput != item.ModelOutput || b.RightOutput != item.BaselineOutput {
				t.Errorf("item %s: outputs not arranged by stored side", b.ID)
			}
		} else {
			if b.LeftOutput != item.BaselineOutput || b.RightOutput != item.ModelOutput {
				t.Errorf("item %s: outputs not arranged by stored side", b.ID)
			}
		}
		if b.Input == "" {
			t.Errorf("item %s: missing example input", b.ID)
		}
	}
}

func TestTrend_OnlyCompletedRunsInOrder(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, valExamples(1), &fakeGenerator{}, 2)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	addRun := func(id string, seq int, status model.EvaluationRunStatus, preferred string, modelScore int) {
		run := &model.EvaluationRun{
			ID: id, ProjectID: "proj-1", ModelRef: "ft:" + id,
			Status: status, ItemCount: 1, CreatedAt: base.Add(time.Duration(seq) * time.Hour),
		}
		item := &model.EvaluationItem{ID: id + "-item", RunID: id, ExampleID: "ex-00"}
		if preferred != "" {
			item.Preferred = strPtr(preferred)
			item.ModelScore = intPtr(modelScore)
		}
		store.CreateRunWithItems(run, []*model.EvaluationItem{item})
	}

	addRun("run-a", 0, model.EvaluationStatusCompleted, model.PreferModel, 8)
	addRun("run-b", 1, model.EvaluationStatusScoring, "", 0)
	addRun("run-c", 2, model.EvaluationStatusCompleted, model.PreferBaseline, 4)

	points, err := svc.Trend(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("points = %d, want 2 (scoring run excluded)", len(points))
	}
	if points[0].RunID != "run-a" || points[1].RunID != "run-c" {
		t.Errorf("order = %s,%s, want run-a,run-c", points[0].RunID, points[1].RunID)
	}
	if points[0].WinRate == nil || !almostEqual(*points[0].WinRate, 1.0) {
		t.Errorf("run-a WinRate = %v, want 1.0", points[0].WinRate)
	}
	if points[1].WinRate == nil || !almostEqual(*points[1].WinRate, 0.0) {
		t.Errorf("run-c WinRate = %v, want 0.0", points[1].WinRate)
	}
	if points[0].AvgModelScore == nil || !almostEqual(*points[0].AvgModelScore, 8.0) {
		t.Errorf("run-a AvgModelScore = %v, want 8.0", points[0].AvgModelScore)
	}
	// run-c 没有基线评分，平均分未定义
	if points[1].AvgBaselineScore != nil {
		t.Errorf("run-c AvgBaselineScore = %v, want nil", points[1].AvgBaselineScore)
	}
}

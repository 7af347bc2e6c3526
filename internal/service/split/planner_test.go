// Package split 划分算法测试
package split

import (
	"fmt"
	"testing"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
)

// mkView 构造测试视图，创建时间按序号递增保证顺序确定
func mkView(id string, seq int, rating *int, split string, locked bool) ExampleView {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return ExampleView{
		ID:        id,
		Rating:    rating,
		Split:     split,
		Locked:    locked,
		CreatedAt: base.Add(time.Duration(seq) * time.Minute),
	}
}

func intPtr(v int) *int { return &v }

func TestCompute_OnlyUnrated(t *testing.T) {
	examples := []ExampleView{
		mkView("a", 0, nil, "", false),
		mkView("b", 1, nil, "", false),
	}

	plan := Compute(examples, Options{})

	if len(plan.Assignments) != 0 {
		t.Errorf("Assignments = %d, want 0", len(plan.Assignments))
	}
	if !plan.NothingToSplit {
		t.Error("NothingToSplit = false, want true")
	}
}

func TestCompute_Empty(t *testing.T) {
	plan := Compute(nil, Options{})
	if !plan.NothingToSplit {
		t.Error("NothingToSplit = false, want true")
	}
	if plan.TrainCount != 0 || plan.ValCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", plan.TrainCount, plan.ValCount)
	}
}

func TestCompute_DefaultRatio(t *testing.T) {
	// 10 条同桶示例，p=0.2 应取位置 0 和 5 进验证集
	examples := make([]ExampleView, 0, 10)
	for i := 0; i < 10; i++ {
		examples = append(examples, mkView(fmt.Sprintf("ex-%02d", i), i, intPtr(7), "", false))
	}

	plan := Compute(examples, Options{ValFraction: 0.2})

	if plan.ValCount != 2 {
		t.Fatalf("ValCount = %d, want 2", plan.ValCount)
	}
	if plan.TrainCount != 8 {
		t.Fatalf("TrainCount = %d, want 8", plan.TrainCount)
	}
	if plan.Assignments["ex-00"] != model.SplitVal {
		t.Errorf("ex-00 = %s, want val", plan.Assignments["ex-00"])
	}
	if plan.Assignments["ex-05"] != model.SplitVal {
		t.Errorf("ex-05 = %s, want val", plan.Assignments["ex-05"])
	}
}

func TestCompute_QualityStratification(t *testing.T) {
	// A(9) B(3) C(9) D(3)，阈值 8，p=0.5：
	// 质量桶 {A,C} 1 val/1 train；非质量桶 {B,D} 1 val/1 train，按创建顺序确定
	examples := []ExampleView{
		mkView("A", 0, intPtr(9), "", false),
		mkView("B", 1, intPtr(3), "", false),
		mkView("C", 2, intPtr(9), "", false),
		mkView("D", 3, intPtr(3), "", false),
	}

	plan := Compute(examples, Options{ValFraction: 0.5, QualityThreshold: 8})

	expected := map[string]string{
		"A": model.SplitVal,
		"B": model.SplitVal,
		"C": model.SplitTrain,
		"D": model.SplitTrain,
	}
	for id, want := range expected {
		if got := plan.Assignments[id]; got != want {
			t.Errorf("Assignments[%s] = %s, want %s", id, got, want)
		}
	}
	if plan.ValCount != 2 || plan.TrainCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", plan.TrainCount, plan.ValCount)
	}
}

func TestCompute_ByRatingBuckets(t *testing.T) {
	examples := []ExampleView{
		mkView("a", 0, intPtr(9), "", false),
		mkView("b", 1, intPtr(9), "", false),
		mkView("c", 2, intPtr(3), "", false),
		mkView("d", 3, intPtr(3), "", false),
	}

	plan := Compute(examples, Options{ValFraction: 0.5, ByRating: true})

	// 每个评分桶独立取 1 val
	if plan.ValCount != 2 {
		t.Errorf("ValCount = %d, want 2", plan.ValCount)
	}
	if plan.Assignments["a"] != model.SplitVal {
		t.Errorf("a = %s, want val", plan.Assignments["a"])
	}
	if plan.Assignments["c"] != model.SplitVal {
		t.Errorf("c = %s, want val", plan.Assignments["c"])
	}
}

func TestCompute_ValCountNearTarget(t *testing.T) {
	// 单桶情况下验证集规模等于 round(N*p)
	tests := []struct {
		name  string
		n     int
		p     float64
		want  int
	}{
		{"n=10 p=0.2", 10, 0.2, 2},
		{"n=5 p=0.2", 5, 0.2, 1},
		{"n=4 p=0.5", 4, 0.5, 2},
		{"n=3 p=0.5", 3, 0.5, 2}, // 1.5 逢五进位
		{"n=7 p=0.3", 7, 0.3, 2},
		{"n=1 p=0.2", 1, 0.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			examples := make([]ExampleView, 0, tt.n)
			for i := 0; i < tt.n; i++ {
				examples = append(examples, mkView(fmt.Sprintf("ex-%02d", i), i, intPtr(5), "", false))
			}
			plan := Compute(examples, Options{ValFraction: tt.p})
			if plan.ValCount != tt.want {
				t.Errorf("ValCount = %d, want %d", plan.ValCount, tt.want)
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	examples := make([]ExampleView, 0, 20)
	for i := 0; i < 20; i++ {
		rating := 3 + i%7
		examples = append(examples, mkView(fmt.Sprintf("ex-%02d", i), i, intPtr(rating), "", false))
	}

	first := Compute(examples, Options{ByRating: true})
	second := Compute(examples, Options{ByRating: true})

	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("assignment sizes differ: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for id, want := range first.Assignments {
		if got := second.Assignments[id]; got != want {
			t.Errorf("Assignments[%s] = %s, want %s", id, got, want)
		}
	}
}

func TestCompute_FullyLockedIdempotent(t *testing.T) {
	// 全部锁定的集合重复运行结果不变：无新分配，统计一致
	examples := []ExampleView{
		mkView("a", 0, intPtr(9), model.SplitVal, true),
		mkView("b", 1, intPtr(7), model.SplitTrain, true),
		mkView("c", 2, intPtr(5), model.SplitTrain, true),
	}

	for i := 0; i < 2; i++ {
		plan := Compute(examples, Options{})
		if len(plan.Assignments) != 0 {
			t.Errorf("run %d: Assignments = %d, want 0", i, len(plan.Assignments))
		}
		if plan.ValCount != 1 || plan.TrainCount != 2 {
			t.Errorf("run %d: counts = %d/%d, want 2/1", i, plan.TrainCount, plan.ValCount)
		}
	}
}

func TestCompute_IncrementalPlacement(t *testing.T) {
	// 既有未锁定划分保留，只放置新示例
	examples := []ExampleView{
		mkView("old-1", 0, intPtr(9), model.SplitVal, false),
		mkView("old-2", 1, intPtr(9), model.SplitTrain, false),
		mkView("new-1", 2, intPtr(9), "", false),
		mkView("new-2", 3, intPtr(9), "", false),
	}

	plan := Compute(examples, Options{ValFraction: 0.5})

	if _, ok := plan.Assignments["old-1"]; ok {
		t.Error("old-1 was reassigned without full reset")
	}
	if _, ok := plan.Assignments["old-2"]; ok {
		t.Error("old-2 was reassigned without full reset")
	}
	// 新示例独立成池：2 条 p=0.5 取 1 val
	if plan.Assignments["new-1"] != model.SplitVal {
		t.Errorf("new-1 = %s, want val", plan.Assignments["new-1"])
	}
	if plan.Assignments["new-2"] != model.SplitTrain {
		t.Errorf("new-2 = %s, want train", plan.Assignments["new-2"])
	}
	if plan.ValCount != 2 || plan.TrainCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", plan.TrainCount, plan.ValCount)
	}
}

func TestCompute_FullResetKeepsLocked(t *testing.T) {
	examples := []ExampleView{
		mkView("locked", 0, intPtr(9), model.SplitVal, true),
		mkView("free-1", 1, intPtr(9), model.SplitVal, false),
		mkView("free-2", 2, intPtr(9), model.SplitTrain, false),
		mkView("free-3", 3, intPtr(9), model.SplitTrain, false),
		mkView("free-4", 4, intPtr(9), model.SplitTrain, false),
	}

	plan := Compute(examples, Options{ValFraction: 0.25, FullReset: true})

	if _, ok := plan.Assignments["locked"]; ok {
		t.Error("locked example was reassigned on full reset")
	}
	// 未锁定的 4 条重新划分：round(4*0.25)=1 val
	reassigned := 0
	vals := 0
	for id, split := range plan.Assignments {
		if id == "locked" {
			continue
		}
		reassigned++
		if split == model.SplitVal {
			vals++
		}
	}
	if reassigned != 4 {
		t.Errorf("reassigned = %d, want 4", reassigned)
	}
	if vals != 1 {
		t.Errorf("val assignments = %d, want 1", vals)
	}
	// 锁定的 val 仍计入统计
	if plan.ValCount != 2 {
		t.Errorf("ValCount = %d, want 2", plan.ValCount)
	}
}

func TestCompute_LockedCountedInTotals(t *testing.T) {
	examples := []ExampleView{
		mkView("locked-val", 0, intPtr(9), model.SplitVal, true),
		mkView("locked-train", 1, intPtr(9), model.SplitTrain, true),
		mkView("unrated", 2, nil, "", false),
	}

	plan := Compute(examples, Options{})

	if plan.EligibleCount != 2 {
		t.Errorf("EligibleCount = %d, want 2", plan.EligibleCount)
	}
	if plan.ValCount != 1 || plan.TrainCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", plan.TrainCount, plan.ValCount)
	}
	if plan.NothingToSplit {
		t.Error("NothingToSplit = true, want false")
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{2.49, 2},
		{2.5, 3},
	}
	for _, tt := range tests {
		if got := roundHalfUp(tt.in); got != tt.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

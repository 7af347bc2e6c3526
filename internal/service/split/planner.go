// Package split 提供训练/验证集的确定性分层划分
package split

import (
	"math"
	"sort"
	"time"

	"github.com/ashwinyue/tunelab/internal/model"
)

// DefaultValFraction 默认验证集比例
const DefaultValFraction = 0.2

// DefaultQualityThreshold 质量分桶的默认评分阈值
const DefaultQualityThreshold = 8

// ExampleView 划分计算所需的示例视图
type ExampleView struct {
	ID        string
	Rating    *int
	Split     string // 既有划分，空串表示未划分
	Locked    bool   // 已被评估轮次引用，不可移动
	CreatedAt time.Time
}

// Options 划分参数
type Options struct {
	// ValFraction 目标验证集比例，0 时取 DefaultValFraction
	ValFraction float64 `json:"val_fraction"`
	// ByRating 按评分值逐桶分层；false 时按质量阈值二分
	ByRating bool `json:"by_rating"`
	// QualityThreshold 质量桶阈值（rating >= threshold 视为质量样本），0 时取默认值
	QualityThreshold int `json:"quality_threshold"`
	// FullReset 重新划分所有未锁定的已划分示例；默认只做增量放置
	FullReset bool `json:"full_reset"`
}

// Plan 划分结果
type Plan struct {
	// Assignments 本次需要写回的划分，示例ID -> train/val
	Assignments map[string]string `json:"assignments"`
	// TrainCount/ValCount 全量统计，包含锁定与保留的既有划分
	TrainCount int `json:"train_count"`
	ValCount   int `json:"val_count"`
	// EligibleCount 参与统计的已评分示例总数
	EligibleCount int `json:"eligible_count"`
	// NothingToSplit 没有可划分示例（非错误）
	NothingToSplit bool `json:"nothing_to_split"`
}

// Compute 计算划分。纯函数：相同输入必然产生相同结果。
//
// 规则：
//   - 仅已评分示例参与划分，未评分示例保持 split 为空；
//   - 锁定示例保持原划分并计入统计，不进入再平衡池；
//   - 未锁定的既有划分默认保留（增量放置），FullReset 时重新进入池；
//   - 池内按桶独立取 round(count*p) 个进验证集，桶内按创建时间升序，
//     取步长 1/p 的位置序列（0, 1/p, 2/p, ...），保证可复现。
func Compute(examples []ExampleView, opts Options) *Plan {
	p := opts.ValFraction
	if p <= 0 {
		p = DefaultValFraction
	}
	threshold := opts.QualityThreshold
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}

	plan := &Plan{Assignments: make(map[string]string)}

	// 待放置池，按桶聚合
	buckets := make(map[int][]ExampleView)

	for _, ex := range examples {
		if ex.Rating == nil {
			continue // 未评分示例不参与
		}
		plan.EligibleCount++

		keep := ex.Locked || (ex.Split != "" && !opts.FullReset)
		if keep && ex.Split != "" {
			// 既有划分计入统计
			if ex.Split == model.SplitVal {
				plan.ValCount++
			} else {
				plan.TrainCount++
			}
			continue
		}

		key := bucketKey(*ex.Rating, opts.ByRating, threshold)
		buckets[key] = append(buckets[key], ex)
	}

	if plan.EligibleCount == 0 {
		plan.NothingToSplit = true
		return plan
	}

	// 桶序固定，避免 map 迭代顺序引入不确定性
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		bucket := buckets[k]
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].CreatedAt.Equal(bucket[j].CreatedAt) {
				return bucket[i].ID < bucket[j].ID
			}
			return bucket[i].CreatedAt.Before(bucket[j].CreatedAt)
		})

		n := len(bucket)
		valN := roundHalfUp(float64(n) * p)

		valIdx := make(map[int]bool, valN)
		for i := 0; i < valN; i++ {
			idx := int(math.Floor(float64(i) / p))
			if idx > n-1 {
				idx = n - 1
			}
			valIdx[idx] = true
		}

		for i, ex := range bucket {
			if valIdx[i] {
				plan.Assignments[ex.ID] = model.SplitVal
				plan.ValCount++
			} else {
				plan.Assignments[ex.ID] = model.SplitTrain
				plan.TrainCount++
			}
		}
	}

	return plan
}

// bucketKey 返回分层桶编号。按评分分桶时即评分值；
// 按质量二分时质量桶为 1，其余为 0。
func bucketKey(rating int, byRating bool, threshold int) int {
	if byRating {
		return rating
	}
	if rating >= threshold {
		return 1
	}
	return 0
}

// roundHalfUp 四舍五入（逢五进位）
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

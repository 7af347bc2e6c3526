// Package evaluation 提供盲测评估：成对生成、盲侧排布、打分与聚合
package evaluation

import (
	"hash/fnv"

	"github.com/ashwinyue/tunelab/internal/model"
	"github.com/ashwinyue/tunelab/internal/service/types"
)

// 打分侧别取值
const (
	SideLeft  = "left"
	SideRight = "right"
	SideTie   = "tie"
)

// SideIsLeftModel 计算条目的盲测排布：微调模型输出是否展示在左侧。
// 取条目 ID 的 FNV-1a 哈希低位，对同一 ID 永远稳定，
// 不同条目之间近似均匀，打分者无法学到固定模式。
func SideIsLeftModel(itemID string) bool {
	h := fnv.New64a()
	h.Write([]byte(itemID))
	return h.Sum64()&1 == 1
}

// Results 一次评估轮次的聚合结果
type Results struct {
	RunID        string `json:"run_id"`
	ModelWins    int    `json:"model_wins"`
	BaselineWins int    `json:"baseline_wins"`
	Ties         int    `json:"ties"`
	ItemCount    int    `json:"item_count"`
	ScoredCount  int    `json:"scored_count"`
	// 平均分在没有任何对应评分时为 nil（未定义），与 0 分严格区分
	AvgModelScore    *float64     `json:"avg_model_score,omitempty"`
	AvgBaselineScore *float64     `json:"avg_baseline_score,omitempty"`
	Items            []ItemResult `json:"items"`
}

// ItemResult 单条目结果
type ItemResult struct {
	ItemID        string  `json:"item_id"`
	ExampleID     string  `json:"example_id"`
	Preferred     *string `json:"preferred,omitempty"`
	ModelScore    *int    `json:"model_score,omitempty"`
	BaselineScore *int    `json:"baseline_score,omitempty"`
}

// Aggregate 聚合轮次条目。纯函数，结果即读即算、不落库。
func Aggregate(runID string, items []*model.EvaluationItem) *Results {
	res := &Results{
		RunID:     runID,
		ItemCount: len(items),
		Items:     make([]ItemResult, 0, len(items)),
	}

	var modelSum, baselineSum int
	var modelN, baselineN int

	for _, item := range items {
		res.Items = append(res.Items, ItemResult{
			ItemID:        item.ID,
			ExampleID:     item.ExampleID,
			Preferred:     item.Preferred,
			ModelScore:    item.ModelScore,
			BaselineScore: item.BaselineScore,
		})

		if item.Preferred == nil {
			continue
		}
		res.ScoredCount++

		switch *item.Preferred {
		case model.PreferModel:
			res.ModelWins++
		case model.PreferBaseline:
			res.BaselineWins++
		case model.PreferTie:
			res.Ties++
		}

		if item.ModelScore != nil {
			modelSum += *item.ModelScore
			modelN++
		}
		if item.BaselineScore != nil {
			baselineSum += *item.BaselineScore
			baselineN++
		}
	}

	if modelN > 0 {
		avg := float64(modelSum) / float64(modelN)
		res.AvgModelScore = &avg
	}
	if baselineN > 0 {
		avg := float64(baselineSum) / float64(baselineN)
		res.AvgBaselineScore = &avg
	}

	return res
}

// TranslatePreference 把打分者的左右选择翻译回 model/baseline 偏好
func TranslatePreference(isLeftModel bool, side string) (string, error) {
	switch side {
	case SideTie:
		return model.PreferTie, nil
	case SideLeft:
		if isLeftModel {
			return model.PreferModel, nil
		}
		return model.PreferBaseline, nil
	case SideRight:
		if isLeftModel {
			return model.PreferBaseline, nil
		}
		return model.PreferModel, nil
	default:
		return "", types.PreconditionFailed("invalid preference side: %s", side)
	}
}

// TranslateScores 把左右两侧的评分映射到 model/baseline 两列
func TranslateScores(isLeftModel bool, leftScore, rightScore *int) (modelScore, baselineScore *int) {
	if isLeftModel {
		return leftScore, rightScore
	}
	return rightScore, leftScore
}

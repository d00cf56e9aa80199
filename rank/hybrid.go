// Package rank 实现混合打分：把候选在各来源的原始分数归一化后加权合成最终分。
package rank

import (
	"context"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pipeline"
	"github.com/rushteam/relkit/pkg/utils"
)

// HybridNode 是混合打分 Node：
//
//	finalScore = WeightLift*normLift + WeightContent*contentSim + WeightEnrich*enrichSim
//
// lift 无上界而相似度有界（归一化后实际落在 [0,1]），直接相加会被量纲
// 左右，所以 lift 必须先归一化再参与合成。归一化基准是"本次请求候选池
// 的 lift 值"（缺失按 0 计），即 min-max 对池内取值、下界为 0：
// normLift = lift / maxLift。基准按请求计算，不用全局常量——
// 这会实质影响排序，是固定下来的设计决定。
//
// 候选缺失某分量时该分量按 0 参与（纯内容发现的候选 normLift 为 0）。
type HybridNode struct {
	// 三路权重；全为 0 时取默认 0.4/0.4/0.2。约定（不强制）之和为 1。
	WeightLift    float64
	WeightContent float64
	WeightEnrich  float64
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	w1, w2, w3 := n.WeightLift, n.WeightContent, n.WeightEnrich
	if w1 == 0 && w2 == 0 && w3 == 0 {
		w1, w2, w3 = core.DefaultWeightLift, core.DefaultWeightContent, core.DefaultWeightEnrich
	}

	// 本次请求候选池内的 lift 上界
	var maxLift float64
	for _, c := range candidates {
		if lift := c.Score(core.ScoreLift); lift > maxLift {
			maxLift = lift
		}
	}

	for _, c := range candidates {
		normLift := 0.0
		if maxLift > 0 {
			normLift = c.Score(core.ScoreLift) / maxLift
		}
		c.FinalScore = w1*normLift + w2*c.Score(core.ScoreContent) + w3*c.Score(core.ScoreEnrich)
		c.PutLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
	}
	return candidates, nil
}

// Package rerank 实现链路末端的确定性排序与截断。
package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pipeline"
)

// TopNNode 对打分后的候选做最终排序并截取前 N 个。
//
// 排序是全序且确定的：
//  1. finalScore 降序
//  2. 同分按原始 lift 降序（协同信号强者优先）
//  3. 再同按商品 ID 升序
//
// 同一快照、同一配置下，重复请求的输出逐位一致。
type TopNNode struct {
	// N 要保留的候选数量；<=0 时不截断（只排序）。
	// 请求通过 RecommendContext.TopN 覆盖时以请求为准。
	N int
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		liftA, liftB := a.Score(core.ScoreLift), b.Score(core.ScoreLift)
		if liftA != liftB {
			return liftA > liftB
		}
		return a.ID < b.ID
	})

	topN := n.N
	if rctx != nil && rctx.TopN > 0 {
		topN = rctx.TopN
	}
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

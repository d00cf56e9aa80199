package recall

import (
	"context"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pkg/utils"
)

// Covisit 是协同召回源：从共现索引取与目标商品 lift 最高的 TopN 商品。
// "买了这个的人还买了什么"——电商关联推荐的常青树。
type Covisit struct {
	// TopN 协同候选数；<=0 时取 core.DefaultNcf
	TopN int
}

func (r *Covisit) Name() string { return "recall.covisit" }

// Recall 实现 Source 接口。lift 与原始共现次数都记在候选上：
// lift 参与打分，共现次数参与 tie-break。
func (r *Covisit) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Snapshot == nil || rctx.Snapshot.CoOccur == nil || rctx.ProductID == "" {
		return nil, nil
	}

	topN := r.TopN
	if topN <= 0 {
		topN = core.DefaultNcf
	}

	idx := rctx.Snapshot.CoOccur
	out := make([]*core.Candidate, 0, topN)
	for id, lift := range idx.TopAssociated(rctx.ProductID, topN) {
		c := core.NewCandidate(id)
		c.PutScore(core.ScoreLift, lift)
		c.PutScore(core.ScoreCoCount, idx.CoCount(rctx.ProductID, id))
		c.PutLabel("recall_source", utils.Label{Value: "covisit", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

package recall

import (
	"context"
	"time"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pkg/utils"
)

// ContentSim 是内容召回源：以目标商品向量做相似检索，取 TopK 相似商品。
// 检索走 core.VectorService，后端可以是内存索引，也可以是外部向量库。
type ContentSim struct {
	// Service 相似检索服务；为空时从快照的内容索引直接读
	Service core.VectorService

	// TopK 内容候选数；<=0 时取 core.DefaultKcontent
	TopK int

	// Timeout 单次检索超时；<=0 时取 core.DefaultVectorTimeout。
	// 超时不报错：返回空候选并打 degraded 标记，部分结果优于整体失败。
	Timeout time.Duration
}

func (r *ContentSim) Name() string { return "recall.content" }

// Recall 实现 Source 接口。
func (r *ContentSim) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.ProductID == "" {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = core.DefaultKcontent
	}

	pairs, err := similarLookup(ctx, r.Service, rctx.Snapshot, rctx.ProductID, topK, r.Timeout)
	if err != nil {
		// 外部检索超时/失败：内容分量降级为 0，请求继续
		rctx.PutLabel("degraded", utils.Label{Value: "content_sim", Source: "recall"})
		return nil, nil
	}

	out := make([]*core.Candidate, 0, len(pairs))
	for _, p := range pairs {
		c := core.NewCandidate(p.id)
		c.PutScore(core.ScoreContent, p.sim)
		c.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

type simPair struct {
	id  string
	sim float64
}

// similarLookup 统一的相似检索入口：优先走 VectorService（带超时），
// 服务未配置时退回快照的内容索引。
func similarLookup(
	ctx context.Context,
	svc core.VectorService,
	snap *core.Snapshot,
	productID string,
	topK int,
	timeout time.Duration,
) ([]simPair, error) {
	if svc != nil {
		if timeout <= 0 {
			timeout = core.DefaultVectorTimeout
		}
		lookupCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := svc.Search(lookupCtx, &core.VectorSearchRequest{
			ProductID: productID,
			TopK:      topK,
		})
		if err != nil {
			return nil, err
		}
		pairs := make([]simPair, 0, len(result.Items))
		for _, it := range result.Items {
			pairs = append(pairs, simPair{id: it.ID, sim: it.Score})
		}
		return pairs, nil
	}

	if snap == nil || snap.Content == nil {
		return nil, nil
	}
	var pairs []simPair
	for id, sim := range snap.Content.TopSimilar(productID, topK) {
		pairs = append(pairs, simPair{id: id, sim: sim})
	}
	return pairs, nil
}

package core

import "github.com/rushteam/relkit/pkg/utils"

// RecommendContext 承载单次推荐请求的目标与场景信息，贯穿整个 Pipeline 透传。
// 推荐以商品为锚点（"看了这个还看什么"），不做按用户的个性化。
type RecommendContext struct {
	ProductID string // 目标商品 ID
	Scene     string // 场景标识（product_page / cart / batch ...）

	// TopN 请求级的结果条数覆盖；<=0 时使用 Config.TopN
	TopN int

	// Snapshot 是请求入口处固定的索引快照：整条链路读同一份快照，
	// 批处理换入新快照不影响在途请求，同一快照下请求结果幂等。
	Snapshot *Snapshot

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	// 例如：degraded（向量检索超时降级）、fallback（冷启动兜底）
	Labels map[string]utils.Label

	// Params 请求级上下文参数（query、device_type、实验分桶等）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

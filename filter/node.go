package filter

import (
	"context"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pipeline"
	"github.com/rushteam/relkit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}

	out := make([]*core.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, c)
			if err != nil {
				// 过滤器出错时保留候选且不中断流程，打标留痕
				c.PutLabel("filter_error", utils.Label{
					Value:  err.Error(),
					Source: f.Name(),
				})
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			// 记录过滤原因（用于调试/观测）
			c.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, c)
	}

	return out, nil
}

// Default 返回推荐链路的标准过滤组合：先剔除目标自身，再剔除不可售商品。
// 去重无需过滤器——Generator 的按 ID 合并已经保证池内无重复。
func Default() *FilterNode {
	return &FilterNode{Filters: []Filter{
		&TargetFilter{},
		&AvailabilityFilter{},
	}}
}

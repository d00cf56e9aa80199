package filter

import (
	"context"

	"github.com/rushteam/relkit/core"
)

// TargetFilter 过滤目标商品自身："买了这个还买什么"的结果里
// 绝不出现这个商品本身。
type TargetFilter struct{}

func (f *TargetFilter) Name() string { return "filter.target" }

func (f *TargetFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	return rctx != nil && c.ID == rctx.ProductID, nil
}

// AvailabilityFilter 过滤不在目录中或不可售（下架/缺货）的商品。
// 以请求固定的快照目录为准。
type AvailabilityFilter struct{}

func (f *AvailabilityFilter) Name() string { return "filter.availability" }

func (f *AvailabilityFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if rctx == nil || rctx.Snapshot == nil {
		return false, nil
	}
	return !rctx.Snapshot.Available(c.ID), nil
}

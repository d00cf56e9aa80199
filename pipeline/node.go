package pipeline

import (
	"context"

	"github.com/rushteam/relkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选池
	KindFilter Kind = "filter" // 过滤阶段：剔除自身/不可售等不合法候选
	KindRank   Kind = "rank"   // 打分阶段：归一化并加权合成最终分
	KindReRank Kind = "rerank" // 重排阶段：确定性排序与截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 candidates -> 输出 candidates"的形态，
// 方便召回生成、过滤截断、打分排序等操作自由组合。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}

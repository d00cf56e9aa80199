package recall

import (
	"context"

	"github.com/rushteam/relkit/core"
)

// Source 表示一个可复用的候选来源（协同共现/内容相似/...）。
// 返回的候选只携带本来源的原始分数；跨来源的合并由 Generator 负责。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}

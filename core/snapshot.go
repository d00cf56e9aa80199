package core

import (
	"iter"
	"sync/atomic"
	"time"
)

// CoOccurrenceIndex 是共现统计索引的领域接口（由 cooccur 包实现）。
//
// 契约：
//   - Lift 对称：Lift(a,b) == Lift(b,a)
//   - 数据不足（任一边际计数为 0 或支持度不够）时返回 0，而不是报错
//   - TopAssociated 返回懒惰、有限、可重放的序列，上限 n，
//     按 lift 降序，同分按原始共现次数降序，再按商品 ID 升序
type CoOccurrenceIndex interface {
	// Lift 返回 pair 的 lift 值：count(a,b)*total/(count(a)*count(b))
	Lift(a, b string) float64

	// CoCount 返回 pair 的加权共现次数（用于 tie-break 与解释）
	CoCount(a, b string) float64

	// TopAssociated 返回与 a 关联度最高的至多 n 个商品及其 lift
	TopAssociated(a string, n int) iter.Seq2[string, float64]

	// TotalTransactions 返回加权总交易数
	TotalTransactions() float64
}

// ContentSimilarityIndex 是内容相似索引的领域接口（由 vector 包实现）。
//
// 契约：
//   - TopSimilar 排除查询商品自身，按相似度降序、同分按商品 ID 升序
//   - 查询商品没有向量时返回空序列，让下游优雅降级
type ContentSimilarityIndex interface {
	// TopSimilar 返回与 productID 最相似的至多 k 个商品及其余弦相似度
	TopSimilar(productID string, k int) iter.Seq2[string, float64]

	// Dimension 返回向量维度（目录内一致）
	Dimension() int
}

// Snapshot 是一次批量构建的不可变产物：两份索引、目录、热度榜。
// 服务期间只读；批处理重建后整体替换，绝不原地修改——
// 请求在途时不会观察到半成品索引。
type Snapshot struct {
	Version int64
	BuiltAt time.Time

	Catalog map[string]Product
	CoOccur CoOccurrenceIndex
	Content ContentSimilarityIndex

	// Popular 是冷启动兜底列表：可售商品按热度降序、同热度按 ID 升序。
	// 构建时排好序，服务时只截断。
	Popular []Product
}

// Available 判断商品是否在目录中且可售。
func (s *Snapshot) Available(productID string) bool {
	if s == nil || s.Catalog == nil {
		return false
	}
	p, ok := s.Catalog[productID]
	return ok && p.Available
}

// PopularTopN 返回热度兜底的前 n 条结果，明细只含 popularity 分量
// （协同/内容贡献为 0，是一种明确定义的状态，不是错误）。
func (s *Snapshot) PopularTopN(n int) []Recommendation {
	if s == nil || n <= 0 {
		return nil
	}
	if n > len(s.Popular) {
		n = len(s.Popular)
	}
	out := make([]Recommendation, 0, n)
	for _, p := range s.Popular[:n] {
		out = append(out, Recommendation{
			ProductID:  p.ID,
			FinalScore: float64(p.Popularity),
			Breakdown:  map[string]float64{ScorePopular: float64(p.Popularity)},
		})
	}
	return out
}

// SnapshotRef 持有"当前快照"的原子引用：批处理 Swap，服务 Load。
// 读路径无锁；换入的快照必须已经构建完成。
type SnapshotRef struct {
	cur atomic.Pointer[Snapshot]
}

// Load 返回当前快照，可能为 nil（尚未完成首次构建）。
func (r *SnapshotRef) Load() *Snapshot {
	return r.cur.Load()
}

// Swap 原子替换当前快照，返回旧快照。
func (r *SnapshotRef) Swap(s *Snapshot) *Snapshot {
	return r.cur.Swap(s)
}

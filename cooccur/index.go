// Package cooccur 实现共现统计索引：从交互日志推导商品两两之间的
// 购买关联强度（lift），供协同召回使用。
//
// Build 是一次性的离线全量构建，产出只读索引；服务期间不做增量更新，
// 新数据通过批处理重建 + 快照替换生效。
package cooccur

import (
	"fmt"
	"iter"
	"sort"

	"github.com/rushteam/relkit/core"
)

// malformedRatioLimit 坏记录比例的熔断线：逐条跳过是常态，
// 超过这个比例说明上游数据源整体有问题，Build 必须失败而不是静默产出残缺索引。
const malformedRatioLimit = 0.5

// Options 是构建选项。零值字段取 core.DefaultConfig 的默认。
type Options struct {
	// EventWeights 按事件类型的参与权重，语义见 core.Config.EventWeights。
	// 默认仅购买参与共现（purchase=1, cart=0, view=0）。
	EventWeights map[core.EventType]float64

	// MinSupport 最小支持度：加权共现次数低于该值的 pair 被抑制
	MinSupport float64
}

// BuildStats 是构建过程的统计，调用方可据此做观测与告警。
type BuildStats struct {
	Events       int // 输入事件总数
	Malformed    int // 跳过的坏记录数
	Transactions int // 有效交易数（至少含一个参与商品）
	Products     int // 出现过的商品数
	Pairs        int // 存储的无序 pair 数
}

// assoc 是预排好序的关联项。
type assoc struct {
	id      string
	lift    float64
	coCount float64
}

// pairKey 是无序 pair 的规范化 key：a < b，每个 pair 只存一次。
type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Index 是不可变的共现索引。实现 core.CoOccurrenceIndex。
type Index struct {
	total      float64
	marginal   map[string]float64
	pairs      map[pairKey]float64
	minSupport float64

	// topLists 在 Build 时排好序（lift 降序 → 共现次数降序 → ID 升序），
	// TopAssociated 只在其上做惰性截断，保证可重放与确定性。
	topLists map[string][]assoc
}

var _ core.CoOccurrenceIndex = (*Index)(nil)

// Build 从交互日志构建共现索引。
//
// 过程：
//  1. 按交易分组；一个商品在一笔交易中的出现权重取其全部事件权重的最大值
//  2. 对同一交易内每个无序商品 pair，共现计数 += min(两侧出现权重)；
//     自身 pair（A,A）永不产生
//  3. 记录每个商品的边际计数与加权总交易数
//
// 错误语义：
//   - 日志为空：DATA_UNAVAILABLE（致命，绝不产出静默为空的索引）
//   - 坏记录：逐条跳过并计数；比例超过 50% 时返回 MALFORMED_INPUT
func Build(events []core.InteractionEvent, opts Options) (*Index, *BuildStats, error) {
	if len(events) == 0 {
		return nil, nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeDataUnavailable,
			"cooccur: interaction log is empty")
	}

	weights := opts.EventWeights
	if weights == nil {
		weights = core.DefaultConfig().EventWeights
	}
	minSupport := opts.MinSupport
	if minSupport < 0 {
		minSupport = 0
	}

	stats := &BuildStats{Events: len(events)}

	// 1. 按交易分组，记录每个商品的出现权重（max over events）
	presence := make(map[string]map[string]float64)
	for _, ev := range events {
		if !ev.Valid() {
			stats.Malformed++
			continue
		}
		w := weights[ev.Type]
		if w <= 0 {
			continue
		}
		tx := presence[ev.TransactionID]
		if tx == nil {
			tx = make(map[string]float64)
			presence[ev.TransactionID] = tx
		}
		if w > tx[ev.ProductID] {
			tx[ev.ProductID] = w
		}
	}

	if stats.Malformed > 0 && float64(stats.Malformed) > malformedRatioLimit*float64(stats.Events) {
		return nil, stats, core.NewDomainError(core.ModuleIndex, core.ErrorCodeMalformedInput,
			fmt.Sprintf("cooccur: %d of %d interaction records malformed", stats.Malformed, stats.Events))
	}

	idx := &Index{
		marginal:   make(map[string]float64),
		pairs:      make(map[pairKey]float64),
		minSupport: minSupport,
		topLists:   make(map[string][]assoc),
	}

	// 2. 累积边际计数与 pair 共现计数
	for _, tx := range presence {
		if len(tx) == 0 {
			continue
		}
		idx.total++
		stats.Transactions++

		ids := make([]string, 0, len(tx))
		for id := range tx {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for i, a := range ids {
			idx.marginal[a] += tx[a]
			for _, b := range ids[i+1:] {
				w := tx[a]
				if tx[b] < w {
					w = tx[b]
				}
				idx.pairs[newPairKey(a, b)] += w
			}
		}
	}

	stats.Products = len(idx.marginal)
	stats.Pairs = len(idx.pairs)

	idx.buildTopLists()
	return idx, stats, nil
}

// buildTopLists 为每个商品预排关联列表。
func (idx *Index) buildTopLists() {
	for key, coCount := range idx.pairs {
		if coCount < idx.minSupport {
			continue
		}
		lift := idx.liftFromCounts(key.a, key.b, coCount)
		if lift <= 0 {
			continue
		}
		idx.topLists[key.a] = append(idx.topLists[key.a], assoc{id: key.b, lift: lift, coCount: coCount})
		idx.topLists[key.b] = append(idx.topLists[key.b], assoc{id: key.a, lift: lift, coCount: coCount})
	}
	for _, list := range idx.topLists {
		sort.Slice(list, func(i, j int) bool {
			if list[i].lift != list[j].lift {
				return list[i].lift > list[j].lift
			}
			if list[i].coCount != list[j].coCount {
				return list[i].coCount > list[j].coCount
			}
			return list[i].id < list[j].id
		})
	}
}

func (idx *Index) liftFromCounts(a, b string, coCount float64) float64 {
	ca := idx.marginal[a]
	cb := idx.marginal[b]
	if ca == 0 || cb == 0 {
		return 0
	}
	return coCount * idx.total / (ca * cb)
}

// Lift 返回 pair 的 lift。支持度不足或数据缺失时返回 0（不是错误）。
// 由计算方式保证对称：Lift(a,b) == Lift(b,a)。
func (idx *Index) Lift(a, b string) float64 {
	if a == b {
		return 0
	}
	coCount, ok := idx.pairs[newPairKey(a, b)]
	if !ok || coCount < idx.minSupport {
		return 0
	}
	return idx.liftFromCounts(a, b, coCount)
}

// CoCount 返回 pair 的加权共现次数（不过滤支持度，用于解释/tie-break）。
func (idx *Index) CoCount(a, b string) float64 {
	if a == b {
		return 0
	}
	return idx.pairs[newPairKey(a, b)]
}

// TotalTransactions 返回有效交易总数。
func (idx *Index) TotalTransactions() float64 {
	return idx.total
}

// TopAssociated 返回与 a 关联度最高的至多 n 个商品及其 lift。
// 序列惰性、有限、可重放；排序为 lift 降序 → 共现次数降序 → ID 升序。
func (idx *Index) TopAssociated(a string, n int) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		if n <= 0 {
			return
		}
		list := idx.topLists[a]
		if n > len(list) {
			n = len(list)
		}
		for _, as := range list[:n] {
			if !yield(as.id, as.lift) {
				return
			}
		}
	}
}

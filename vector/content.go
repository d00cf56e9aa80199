// Package vector 实现内容相似索引：基于外部 embedding 服务产出的商品向量，
// 提供余弦相似度的近邻检索。
//
// 默认实现是内存暴力扫描（小目录规模足够）；更大规模可以接外部 ANN 后端，
// 只要满足 core.ContentSimilarityIndex / core.VectorService 的排序与排除自身契约。
package vector

import (
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/rushteam/relkit/core"
)

// malformedRatioLimit 与 cooccur 相同的坏记录熔断线。
const malformedRatioLimit = 0.5

// BuildStats 是构建过程的统计。
type BuildStats struct {
	Records   int // 输入向量记录数
	Malformed int // 跳过的坏记录数（维度不符 / 零向量 / 空 ID）
	Stored    int // 实际入库的向量数
	Dimension int // 向量维度
}

// ContentIndex 是不可变的内容相似索引。向量入库时归一化到单位长度，
// 余弦相似度退化为点积。实现 core.ContentSimilarityIndex。
type ContentIndex struct {
	dim     int
	vectors map[string][]float64
}

var _ core.ContentSimilarityIndex = (*ContentIndex)(nil)

// Build 从 embedding 记录构建内容索引。
//
// 维度以第一条合法记录为准；之后维度不符、零向量、空 ID 的记录
// 逐条跳过并计数，比例超过 50% 时返回 MALFORMED_INPUT。
// 空输入产出空索引（内容信号整体缺席由下游降级，不算构建失败）。
func Build(embeddings []core.Embedding) (*ContentIndex, *BuildStats, error) {
	stats := &BuildStats{Records: len(embeddings)}
	idx := &ContentIndex{vectors: make(map[string][]float64, len(embeddings))}

	for _, e := range embeddings {
		if e.ProductID == "" || len(e.Vector) == 0 {
			stats.Malformed++
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(e.Vector)
		}
		if len(e.Vector) != idx.dim {
			stats.Malformed++
			continue
		}
		normalized, ok := normalize(e.Vector)
		if !ok {
			stats.Malformed++
			continue
		}
		idx.vectors[e.ProductID] = normalized
	}

	stats.Stored = len(idx.vectors)
	stats.Dimension = idx.dim

	if stats.Malformed > 0 && float64(stats.Malformed) > malformedRatioLimit*float64(stats.Records) {
		return nil, stats, core.NewDomainError(core.ModuleVector, core.ErrorCodeMalformedInput,
			fmt.Sprintf("vector: %d of %d embedding records malformed", stats.Malformed, stats.Records))
	}
	return idx, stats, nil
}

// normalize 归一化到单位长度；零范数向量无法归一化，返回 false。
func normalize(v []float64) ([]float64, bool) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return nil, false
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, true
}

// Dimension 返回向量维度；空索引为 0。
func (idx *ContentIndex) Dimension() int { return idx.dim }

// Len 返回入库向量数。
func (idx *ContentIndex) Len() int { return len(idx.vectors) }

// Vector 返回商品的归一化向量；无向量的商品返回 (nil, false)。
func (idx *ContentIndex) Vector(productID string) ([]float64, bool) {
	v, ok := idx.vectors[productID]
	return v, ok
}

type scored struct {
	id  string
	sim float64
}

// search 暴力扫描全量向量，排除 excludeID，排序取 TopK。
// 排序：相似度降序 → ID 升序，保证确定性。
func (idx *ContentIndex) search(query []float64, excludeID string, k int) []scored {
	if k <= 0 || len(query) != idx.dim || idx.dim == 0 {
		return nil
	}
	results := make([]scored, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		if id == excludeID {
			continue
		}
		results = append(results, scored{id: id, sim: dot(query, v)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].sim != results[j].sim {
			return results[i].sim > results[j].sim
		}
		return results[i].id < results[j].id
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// TopSimilar 返回与 productID 最相似的至多 k 个商品及其余弦相似度。
// 查询商品自身被排除；无向量的商品返回空序列，让下游优雅降级。
// 序列可重放，每次重放重新扫描（索引不可变，结果确定）。
func (idx *ContentIndex) TopSimilar(productID string, k int) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		query, ok := idx.vectors[productID]
		if !ok {
			return
		}
		for _, s := range idx.search(query, productID, k) {
			if !yield(s.id, s.sim) {
				return
			}
		}
	}
}

// TopSimilarToVector 以任意查询向量检索（向量会先归一化）。
// 维度不符返回空序列。
func (idx *ContentIndex) TopSimilarToVector(query []float64, k int) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		normalized, ok := normalize(query)
		if !ok || len(normalized) != idx.dim {
			return
		}
		for _, s := range idx.search(normalized, "", k) {
			if !yield(s.id, s.sim) {
				return
			}
		}
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

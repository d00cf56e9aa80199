package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/rushteam/relkit/core"
)

func collect(seq func(yield func(string, float64) bool)) ([]string, []float64) {
	var ids []string
	var sims []float64
	for id, sim := range seq {
		ids = append(ids, id)
		sims = append(sims, sim)
	}
	return ids, sims
}

// TestBuild_Normalization 验证向量入库时归一化到单位长度。
func TestBuild_Normalization(t *testing.T) {
	idx, stats, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{3, 4}},
	})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	if stats.Stored != 1 || stats.Dimension != 2 {
		t.Errorf("期望 stored=1 dim=2，实际 %+v", stats)
	}

	v, ok := idx.Vector("A")
	if !ok {
		t.Fatal("A 的向量缺失")
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("范数平方期望 1，实际 %v", norm)
	}
}

// TestTopSimilar_OrderingAndSelfExclusion 验证排序（相似度降序 → ID 升序）与排除自身。
func TestTopSimilar_OrderingAndSelfExclusion(t *testing.T) {
	idx, _, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{1, 0.1}},
		{ProductID: "C", Vector: []float64{0, 1}},
		{ProductID: "D", Vector: []float64{1, 0}}, // 与 A 完全同向，sim=1
		{ProductID: "E", Vector: []float64{2, 0}}, // 归一化后与 D 相同，靠 ID 定序
	})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	ids, sims := collect(idx.TopSimilar("A", 10))
	want := []string{"D", "E", "B", "C"}
	if len(ids) != len(want) {
		t.Fatalf("期望 %v，实际 %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("期望 %v，实际 %v", want, ids)
		}
	}
	for _, id := range ids {
		if id == "A" {
			t.Error("结果不应包含查询商品自身")
		}
	}
	for i := 1; i < len(sims); i++ {
		if sims[i] > sims[i-1] {
			t.Errorf("相似度应降序：%v", sims)
		}
	}
	if math.Abs(sims[0]-1) > 1e-9 {
		t.Errorf("sim(A,D) 期望 1，实际 %v", sims[0])
	}
}

// TestTopSimilar_MissingEmbedding 无向量的商品返回空序列而不是报错。
func TestTopSimilar_MissingEmbedding(t *testing.T) {
	idx, _, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
	})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	ids, _ := collect(idx.TopSimilar("missing", 5))
	if len(ids) != 0 {
		t.Errorf("无向量商品期望空序列，实际 %v", ids)
	}
}

// TestTopSimilar_Truncation 验证 K 截断。
func TestTopSimilar_Truncation(t *testing.T) {
	idx, _, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{0.9, 0.1}},
		{ProductID: "C", Vector: []float64{0.8, 0.2}},
		{ProductID: "D", Vector: []float64{0.7, 0.3}},
	})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	ids, _ := collect(idx.TopSimilar("A", 2))
	if len(ids) != 2 {
		t.Errorf("期望截断到 2，实际 %d", len(ids))
	}
}

// TestBuild_MalformedRecords 维度不符/零向量/空 ID 逐条跳过并计数。
func TestBuild_MalformedRecords(t *testing.T) {
	idx, stats, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0, 0}},
		{ProductID: "B", Vector: []float64{0, 1, 0}},
		{ProductID: "C", Vector: []float64{1, 0}},       // 维度不符
		{ProductID: "D", Vector: []float64{0, 0, 0}},    // 零向量
		{ProductID: "", Vector: []float64{1, 1, 1}},     // 空 ID
		{ProductID: "E", Vector: []float64{0.5, 1, -1}}, // 合法
	})
	if err != nil {
		t.Fatalf("坏记录未过半不应失败: %v", err)
	}
	if stats.Malformed != 3 {
		t.Errorf("期望 3 条坏记录，实际 %d", stats.Malformed)
	}
	if idx.Len() != 3 {
		t.Errorf("期望入库 3 条，实际 %d", idx.Len())
	}
	if _, ok := idx.Vector("C"); ok {
		t.Error("维度不符的记录不应入库")
	}
}

// TestBuild_MalformedOverLimit 坏记录过半返回 MALFORMED_INPUT。
func TestBuild_MalformedOverLimit(t *testing.T) {
	_, _, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{0, 0}},
		{ProductID: "C", Vector: []float64{1}},
	})
	if err == nil {
		t.Fatal("期望错误，实际为 nil")
	}
	var de *core.DomainError
	if !errors.As(err, &de) || de.Code != core.ErrorCodeMalformedInput {
		t.Errorf("期望 MALFORMED_INPUT，实际 %v", err)
	}
}

// TestBuild_Empty 空输入产出空索引（内容信号整体缺席由下游降级）。
func TestBuild_Empty(t *testing.T) {
	idx, _, err := Build(nil)
	if err != nil {
		t.Fatalf("空输入不应失败: %v", err)
	}
	if idx.Len() != 0 || idx.Dimension() != 0 {
		t.Errorf("期望空索引，实际 len=%d dim=%d", idx.Len(), idx.Dimension())
	}
	ids, _ := collect(idx.TopSimilar("A", 5))
	if len(ids) != 0 {
		t.Errorf("空索引期望空序列，实际 %v", ids)
	}
}

// TestTopSimilarToVector 以任意向量查询，查询向量先归一化，不排除任何商品。
func TestTopSimilarToVector(t *testing.T) {
	idx, _, err := Build([]core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{0, 1}},
	})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}

	ids, sims := collect(idx.TopSimilarToVector([]float64{5, 0}, 10))
	if len(ids) != 2 || ids[0] != "A" {
		t.Fatalf("期望 [A B]，实际 %v", ids)
	}
	if math.Abs(sims[0]-1) > 1e-9 {
		t.Errorf("查询向量应先归一化，sim 期望 1，实际 %v", sims[0])
	}

	// 维度不符返回空序列
	ids, _ = collect(idx.TopSimilarToVector([]float64{1, 0, 0}, 10))
	if len(ids) != 0 {
		t.Errorf("维度不符期望空序列，实际 %v", ids)
	}
}

package recommender

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/store"
)

func purchases(txs map[string][]string) []core.InteractionEvent {
	var events []core.InteractionEvent
	for tx, ids := range txs {
		for _, id := range ids {
			events = append(events, core.InteractionEvent{
				TransactionID: tx,
				ProductID:     id,
				Type:          core.EventPurchase,
			})
		}
	}
	return events
}

func testCatalog() []core.Product {
	return []core.Product{
		{ID: "A", Available: true, Popularity: 40},
		{ID: "B", Available: true, Popularity: 35},
		{ID: "C", Available: true, Popularity: 20},
		{ID: "D", Available: true, Popularity: 15},
		{ID: "E", Available: true, Popularity: 5}, // 新品：无交互、无向量
	}
}

func rebuild(t *testing.T, rec *Recommender) *core.Snapshot {
	t.Helper()
	events := purchases(map[string][]string{
		"t1": {"A", "B"},
		"t2": {"A", "B"},
		"t3": {"A", "C"},
		"t4": {"B", "D"},
	})
	embeddings := []core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{0.9, 0.43588989435}},
		{ProductID: "C", Vector: []float64{0.2, 0.9797958971}},
		{ProductID: "D", Vector: []float64{0.7, 0.71414284285}},
	}
	snap, err := rec.RebuildIndices(context.Background(), events, testCatalog(), embeddings)
	if err != nil {
		t.Fatalf("重建失败: %v", err)
	}
	return snap
}

// TestGetRecommendations_NoSnapshot 首次构建前服务返回 DATA_UNAVAILABLE。
func TestGetRecommendations_NoSnapshot(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	_, err = rec.GetRecommendations(context.Background(), "A", 3)
	if !core.IsDataUnavailable(err) {
		t.Errorf("期望 DATA_UNAVAILABLE，实际 %v", err)
	}
}

// TestNew_InvalidConfig 非法配置在触碰索引之前即拒绝。
func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.Config
	}{
		{"负 topN", core.Config{TopN: -1}},
		{"负候选池", core.Config{Ncf: -5}},
		{"负权重", core.Config{WeightLift: -0.1, WeightContent: 1, WeightEnrich: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !core.IsInvalidConfig(err) {
				t.Errorf("期望 INVALID_CONFIG，实际 %v", err)
			}
		})
	}
}

// TestGetRecommendations_NeverSelfNorUnavailable 结果绝不包含目标自身与不可售商品。
func TestGetRecommendations_NeverSelfNorUnavailable(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// B 下架
	catalog := testCatalog()
	for i := range catalog {
		if catalog[i].ID == "B" {
			catalog[i].Available = false
		}
	}
	events := purchases(map[string][]string{
		"t1": {"A", "B"},
		"t2": {"A", "B"},
		"t3": {"A", "C"},
	})
	if _, err := rec.RebuildIndices(context.Background(), events, catalog, nil); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	for _, target := range []string{"A", "B", "C"} {
		recs, err := rec.GetRecommendations(context.Background(), target, 5)
		if err != nil {
			t.Fatalf("推荐 %s 失败: %v", target, err)
		}
		for _, r := range recs {
			if r.ProductID == target {
				t.Errorf("推荐 %s 的结果包含自身", target)
			}
			if r.ProductID == "B" {
				t.Errorf("推荐 %s 的结果包含下架商品 B", target)
			}
		}
	}
}

// TestGetRecommendations_ContentOnly 内容单权重：sim(A,B)=0.9、sim(A,C)=0.2，
// w1=0,w2=1,w3=0 时返回 [B(0.9), C(0.2)]。
func TestGetRecommendations_ContentOnly(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.WeightLift = 0
	cfg.WeightContent = 1
	cfg.WeightEnrich = 0
	rec, err := New(cfg)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 交互日志不涉及 A，协同通道对 A 无信号，只剩内容通道
	events := purchases(map[string][]string{
		"t1": {"D", "E"},
	})
	embeddings := []core.Embedding{
		{ProductID: "A", Vector: []float64{1, 0}},
		{ProductID: "B", Vector: []float64{0.9, 0.43588989435}},
		{ProductID: "C", Vector: []float64{0.2, 0.9797958971}},
	}
	if _, err := rec.RebuildIndices(context.Background(), events, testCatalog(), embeddings); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	recs, err := rec.GetRecommendations(context.Background(), "A", 2)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("期望 2 条结果，实际 %d", len(recs))
	}
	if recs[0].ProductID != "B" || math.Abs(recs[0].FinalScore-0.9) > 1e-6 {
		t.Errorf("第 1 条期望 B(0.9)，实际 %s(%v)", recs[0].ProductID, recs[0].FinalScore)
	}
	if recs[1].ProductID != "C" || math.Abs(recs[1].FinalScore-0.2) > 1e-6 {
		t.Errorf("第 2 条期望 C(0.2)，实际 %s(%v)", recs[1].ProductID, recs[1].FinalScore)
	}
}

// TestGetRecommendations_ColdStart 新品无交互无向量：返回热度兜底列表，
// 明细只含 popularity 分量，且不含自身。
func TestGetRecommendations_ColdStart(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	rebuild(t, rec)

	recs, err := rec.GetRecommendations(context.Background(), "E", 3)
	if err != nil {
		t.Fatalf("冷启动是明确定义的状态，不应报错: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("期望 3 条兜底结果，实际 %d", len(recs))
	}

	// 热度降序：A(40) B(35) C(20)
	want := []string{"A", "B", "C"}
	for i, r := range recs {
		if r.ProductID != want[i] {
			t.Errorf("第 %d 条期望 %s，实际 %s", i+1, want[i], r.ProductID)
		}
		if r.ProductID == "E" {
			t.Error("兜底列表不应包含目标自身")
		}
		if len(r.Breakdown) != 1 {
			t.Errorf("兜底明细应只含 popularity，实际 %v", r.Breakdown)
		}
		if _, ok := r.Breakdown[core.ScorePopular]; !ok {
			t.Errorf("兜底明细缺少 popularity 分量: %v", r.Breakdown)
		}
	}
}

// TestGetRecommendations_FallbackExcludesTarget 目标在热度榜头部时兜底仍凑满 topN。
func TestGetRecommendations_FallbackExcludesTarget(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 目标 A 是热度第一且无任何信号
	events := purchases(map[string][]string{
		"t1": {"D", "E"},
	})
	if _, err := rec.RebuildIndices(context.Background(), events, testCatalog(), nil); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	recs, err := rec.GetRecommendations(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	want := []string{"B", "C", "D"}
	if len(recs) != len(want) {
		t.Fatalf("期望 %v，实际 %d 条", want, len(recs))
	}
	for i, r := range recs {
		if r.ProductID != want[i] {
			t.Errorf("第 %d 条期望 %s，实际 %s", i+1, want[i], r.ProductID)
		}
	}
}

// TestGetRecommendations_Idempotent 同一快照同一配置下重复请求结果逐位一致。
func TestGetRecommendations_Idempotent(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	rebuild(t, rec)

	first, err := rec.GetRecommendations(context.Background(), "A", 5)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := rec.GetRecommendations(context.Background(), "A", 5)
		if err != nil {
			t.Fatalf("推荐失败: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("结果长度漂移：%d vs %d", len(first), len(again))
		}
		for j := range first {
			if first[j].ProductID != again[j].ProductID || first[j].FinalScore != again[j].FinalScore {
				t.Fatalf("结果漂移：%v vs %v", first[j], again[j])
			}
		}
	}
}

// TestGetRecommendations_SortedAndBounded 结果长度 ≤ topN 且按 finalScore 降序。
func TestGetRecommendations_SortedAndBounded(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	rebuild(t, rec)

	recs, err := rec.GetRecommendations(context.Background(), "A", 2)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(recs) > 2 {
		t.Errorf("结果长度 %d 超过 topN=2", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].FinalScore > recs[i-1].FinalScore {
			t.Errorf("finalScore 应降序：%v", recs)
		}
	}
}

// TestRebuildIndices_AtomicSwap 重建失败不换入，服务继续读旧快照。
func TestRebuildIndices_AtomicSwap(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	snap1 := rebuild(t, rec)

	// 空目录：重建失败
	if _, err := rec.RebuildIndices(context.Background(), nil, nil, nil); !core.IsDataUnavailable(err) {
		t.Errorf("空目录期望 DATA_UNAVAILABLE，实际 %v", err)
	}
	if got := rec.Snapshot(); got != snap1 {
		t.Error("重建失败后当前快照不应改变")
	}

	// 成功重建：版本递增且换入
	snap2 := rebuild(t, rec)
	if snap2.Version <= snap1.Version {
		t.Errorf("版本应递增：%d -> %d", snap1.Version, snap2.Version)
	}
	if got := rec.Snapshot(); got != snap2 {
		t.Error("重建成功后应换入新快照")
	}
}

// TestPrecomputeAll 全目录预计算：每个商品一份列表，均不含自身。
func TestPrecomputeAll(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	snap := rebuild(t, rec)

	results, err := rec.PrecomputeAll(context.Background(), 3)
	if err != nil {
		t.Fatalf("预计算失败: %v", err)
	}
	if len(results) != len(snap.Catalog) {
		t.Errorf("期望 %d 份列表，实际 %d", len(snap.Catalog), len(results))
	}
	for id, recs := range results {
		if len(recs) > 3 {
			t.Errorf("%s 的列表长度 %d 超过 topN=3", id, len(recs))
		}
		for _, r := range recs {
			if r.ProductID == id {
				t.Errorf("%s 的预计算列表包含自身", id)
			}
		}
	}

	// 与逐个在线请求一致
	online, err := rec.GetRecommendations(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	batch := results["A"]
	if len(online) != len(batch) {
		t.Fatalf("批量与在线结果长度不一致：%d vs %d", len(batch), len(online))
	}
	for i := range online {
		if online[i].ProductID != batch[i].ProductID {
			t.Errorf("批量与在线结果不一致：%v vs %v", batch[i], online[i])
		}
	}
}

type mapProvider struct {
	vectors map[string][]float64
}

func (p *mapProvider) GetEmbedding(_ context.Context, id string) ([]float64, error) {
	if v, ok := p.vectors[id]; ok {
		return v, nil
	}
	return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "no embedding")
}

func (p *mapProvider) BatchGetEmbeddings(_ context.Context, ids []string) (map[string][]float64, error) {
	out := make(map[string][]float64)
	for _, id := range ids {
		if v, ok := p.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (p *mapProvider) Close() error { return nil }

// TestLoadEmbeddings 从提供者拉取目录向量，缺失的商品被跳过。
func TestLoadEmbeddings(t *testing.T) {
	provider := &mapProvider{vectors: map[string][]float64{
		"A": {1, 0},
		"B": {0, 1},
	}}
	embeddings, err := LoadEmbeddings(context.Background(), provider, testCatalog())
	if err != nil {
		t.Fatalf("拉取失败: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("期望 2 条向量，实际 %d", len(embeddings))
	}
	// 输出按 ID 升序，结果确定
	if embeddings[0].ProductID != "A" || embeddings[1].ProductID != "B" {
		t.Errorf("期望 [A B]，实际 %v", embeddings)
	}
}

// TestArtifacts_RoundTrip 预计算产物落盘与查表。
func TestArtifacts_RoundTrip(t *testing.T) {
	rec, err := New(core.DefaultConfig())
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	snap := rebuild(t, rec)

	results, err := rec.PrecomputeAll(context.Background(), 3)
	if err != nil {
		t.Fatalf("预计算失败: %v", err)
	}

	s := store.NewMemoryStore()
	defer s.Close()

	if err := SaveArtifacts(context.Background(), s, snap, results); err != nil {
		t.Fatalf("落盘失败: %v", err)
	}

	loaded, err := LoadArtifact(context.Background(), s, "A")
	if err != nil {
		t.Fatalf("查表失败: %v", err)
	}
	if len(loaded) != len(results["A"]) {
		t.Fatalf("读回长度不一致：%d vs %d", len(results["A"]), len(loaded))
	}
	for i := range loaded {
		if loaded[i].ProductID != results["A"][i].ProductID {
			t.Errorf("读回结果不一致：%v vs %v", results["A"][i], loaded[i])
		}
	}

	// 未命中返回 NOT_FOUND
	if _, err := LoadArtifact(context.Background(), s, "missing"); !core.IsNotFound(err) {
		t.Errorf("期望 NOT_FOUND，实际 %v", err)
	}

	// 热度榜写入有序集合：分数降序
	members, err := s.ZRange(context.Background(), "popularity", 0, 2)
	if err != nil {
		t.Fatalf("热度榜读取失败: %v", err)
	}
	if len(members) != 3 || members[0] != "A" || members[1] != "B" {
		t.Errorf("热度榜期望 [A B C]，实际 %v", members)
	}
}

// Package recommender 是推荐核心的门面：
//   - 服务口径：GetRecommendations（对当前快照的纯读，幂等）
//   - 批处理口径：RebuildIndices（全量重建 + 原子换入）、
//     PrecomputeAll（全目录并行预计算，可落盘为查表产物）
package recommender

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/relkit/cooccur"
	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/filter"
	"github.com/rushteam/relkit/pipeline"
	"github.com/rushteam/relkit/rank"
	"github.com/rushteam/relkit/recall"
	"github.com/rushteam/relkit/rerank"
	"github.com/rushteam/relkit/vector"
)

// Recommender 持有配置、当前快照引用与固定的推荐链路。
// 链路各 Node 无请求级状态，可被任意多请求并发复用。
type Recommender struct {
	cfg     core.Config
	ref     core.SnapshotRef
	version atomic.Int64

	vec     core.VectorService // 可选的外部向量检索后端
	pipe    *pipeline.Pipeline
	filters []filter.Filter
	extra   []recall.Source
}

// Option 配置 Recommender 的可选依赖。
type Option func(*Recommender)

// WithVectorService 接入外部向量检索后端（Milvus 等）。
// 不设置时直接读快照的内存内容索引。
func WithVectorService(svc core.VectorService) Option {
	return func(r *Recommender) { r.vec = svc }
}

// WithFilter 追加业务过滤器（在标准过滤之后执行）。
func WithFilter(f filter.Filter) Option {
	return func(r *Recommender) { r.filters = append(r.filters, f) }
}

// WithSource 追加候选来源（扩展点）。
func WithSource(s recall.Source) Option {
	return func(r *Recommender) { r.extra = append(r.extra, s) }
}

// New 创建 Recommender。配置在触碰任何索引之前校验，
// 非法配置（非正的池大小/topN 等）此处即拒绝。
func New(cfg core.Config, opts ...Option) (*Recommender, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Recommender{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	filters := append([]filter.Filter{
		&filter.TargetFilter{},
		&filter.AvailabilityFilter{},
	}, r.filters...)

	r.pipe = &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Generator{
			Vector:   r.vec,
			Ncf:      cfg.Ncf,
			Kcontent: cfg.Kcontent,
			Menrich:  cfg.Menrich,
			Timeout:  cfg.VectorTimeout,
			Extra:    r.extra,
		},
		&filter.FilterNode{Filters: filters},
		&rank.HybridNode{
			WeightLift:    cfg.WeightLift,
			WeightContent: cfg.WeightContent,
			WeightEnrich:  cfg.WeightEnrich,
		},
		&rerank.TopNNode{N: cfg.TopN},
	}}
	return r, nil
}

// Config 返回生效的配置（含默认值）。
func (r *Recommender) Config() core.Config { return r.cfg }

// Snapshot 返回当前快照，可能为 nil（尚未完成首次构建）。
func (r *Recommender) Snapshot() *core.Snapshot { return r.ref.Load() }

// RebuildIndices 全量重建两份索引并原子换入新快照。
//
// 重建在旁路完成，成功前服务一直读旧快照；任一步失败则不换入，
// 绝不让服务观察到半成品索引。输入缺失按 DATA_UNAVAILABLE 失败。
func (r *Recommender) RebuildIndices(
	ctx context.Context,
	events []core.InteractionEvent,
	catalog []core.Product,
	embeddings []core.Embedding,
) (*core.Snapshot, error) {
	if len(catalog) == 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeDataUnavailable,
			"recommender: catalog is empty")
	}

	coIdx, _, err := cooccur.Build(events, cooccur.Options{
		EventWeights: r.cfg.EventWeights,
		MinSupport:   r.cfg.MinSupport,
	})
	if err != nil {
		return nil, err
	}

	contentIdx, _, err := vector.Build(embeddings)
	if err != nil {
		return nil, err
	}

	catalogMap := make(map[string]core.Product, len(catalog))
	for _, p := range catalog {
		if p.ID == "" {
			continue
		}
		catalogMap[p.ID] = p
	}

	// 热度榜构建期排好序：可售优先、热度降序、同热度 ID 升序
	popular := make([]core.Product, 0, len(catalogMap))
	for _, p := range catalogMap {
		if p.Available {
			popular = append(popular, p)
		}
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Popularity != popular[j].Popularity {
			return popular[i].Popularity > popular[j].Popularity
		}
		return popular[i].ID < popular[j].ID
	})

	snap := &core.Snapshot{
		Version: r.version.Add(1),
		BuiltAt: time.Now(),
		Catalog: catalogMap,
		CoOccur: coIdx,
		Content: contentIdx,
		Popular: popular,
	}
	r.ref.Swap(snap)
	return snap, nil
}

// LoadEmbeddings 从 embedding 提供者批量拉取目录内全部商品的内容向量，
// 产出可直接交给 RebuildIndices 的记录。缺失向量的商品被跳过
// （内容信号缺席由召回层降级，不算拉取失败）。
func LoadEmbeddings(ctx context.Context, provider core.EmbeddingProvider, catalog []core.Product) ([]core.Embedding, error) {
	ids := make([]string, 0, len(catalog))
	for _, p := range catalog {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)

	vectors, err := provider.BatchGetEmbeddings(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]core.Embedding, 0, len(vectors))
	for _, id := range ids {
		if vec, ok := vectors[id]; ok {
			out = append(out, core.Embedding{ProductID: id, Vector: vec})
		}
	}
	return out, nil
}

// GetRecommendations 为目标商品生成推荐列表。
// 对固定快照的纯读操作，无副作用，重复调用结果逐位一致。
// topN<=0 时使用配置默认值。
func (r *Recommender) GetRecommendations(
	ctx context.Context,
	productID string,
	topN int,
) ([]core.Recommendation, error) {
	snap := r.ref.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleServe, core.ErrorCodeDataUnavailable,
			"recommender: no index snapshot built yet")
	}
	return r.recommendOn(ctx, snap, productID, topN)
}

// recommendOn 在指定快照上执行推荐链路（批处理按快照固定调用此方法）。
func (r *Recommender) recommendOn(
	ctx context.Context,
	snap *core.Snapshot,
	productID string,
	topN int,
) ([]core.Recommendation, error) {
	if topN <= 0 {
		topN = r.cfg.TopN
	}

	rctx := &core.RecommendContext{
		ProductID: productID,
		Scene:     "related",
		TopN:      topN,
		Snapshot:  snap,
	}

	candidates, err := r.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	// 冷启动兜底：过滤后候选池为空是明确定义的状态，不是错误。
	// 返回热度榜 TopN（兜底列表同样不包含目标商品自身）。
	if len(candidates) == 0 {
		return r.fallback(snap, productID, topN), nil
	}

	out := make([]core.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ToRecommendation())
	}
	return out, nil
}

func (r *Recommender) fallback(snap *core.Snapshot, productID string, topN int) []core.Recommendation {
	// 多取一位再剔除自身，保证兜底也能凑满 topN
	list := snap.PopularTopN(topN + 1)
	out := make([]core.Recommendation, 0, topN)
	for _, rec := range list {
		if rec.ProductID == productID {
			continue
		}
		out = append(out, rec)
		if len(out) == topN {
			break
		}
	}
	return out
}

// PrecomputeAll 为目录内全部商品并行预计算推荐列表。
//
// 每个商品的链路是对同一只读快照的独立纯读，天然可并行：
// worker 间无共享可变状态，无需加锁（结果表的写入除外）。
// 批处理可被整体取消（ctx），服务继续读已换入的快照，不受影响。
func (r *Recommender) PrecomputeAll(ctx context.Context, topN int) (map[string][]core.Recommendation, error) {
	snap := r.ref.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleServe, core.ErrorCodeDataUnavailable,
			"recommender: no index snapshot built yet")
	}

	ids := make([]string, 0, len(snap.Catalog))
	for id := range snap.Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		mu      sync.Mutex
		results = make(map[string][]core.Recommendation, len(ids))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.MaxConcurrency)

	for _, id := range ids {
		productID := id
		eg.Go(func() error {
			recs, err := r.recommendOn(egCtx, snap, productID, topN)
			if err != nil {
				return err
			}
			mu.Lock()
			results[productID] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

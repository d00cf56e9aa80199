package recall

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pipeline"
	"github.com/rushteam/relkit/pkg/utils"
)

// Generator 是候选生成 Node：并发拉取协同与内容候选，再以协同候选为种子
// 做第二跳扩展（enrichment），最后合并为按商品 ID 去重的候选池。
//
// 合并规则（强约定）：
//   - 一个商品一次请求只有一个 Candidate，按 ID 合并是强制的
//   - 每个来源只写自己的分数 key，绝不覆盖其他来源已写入的分数
//   - enrichment 分数取"与任一协同种子的最大相似度"——与某个强关联
//     商品高度相似的候选，不应因为不匹配其余种子而被摊薄，所以取 max 不取 sum
type Generator struct {
	// Vector 相似检索服务；为空时直接读快照内容索引
	Vector core.VectorService

	// Ncf / Kcontent / Menrich 三路候选规模；<=0 时取各自默认
	Ncf      int
	Kcontent int
	Menrich  int

	// Timeout 单次向量检索超时（超时降级，不失败）
	Timeout time.Duration

	// Extra 额外候选来源（可选扩展点）；其候选同样按 ID 合并进池
	Extra []Source
}

func (g *Generator) Name() string        { return "recall.generator" }
func (g *Generator) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。输入 items 被忽略（Generator 是链路起点）。
func (g *Generator) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	pool, err := g.Generate(ctx, rctx)
	if err != nil {
		return nil, err
	}

	// map 遍历无序，这里按 ID 排序输出，保证链路各环节输入确定
	out := make([]*core.Candidate, 0, len(pool))
	for _, c := range pool {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Generate 生成候选池：map[商品ID]*Candidate。
//
// 步骤：
//  1. 协同候选（TopAssociated）与内容候选（TopSimilar）并发拉取
//  2. 以第 1 步的协同候选为种子做 enrichment 第二跳
//  3. 全部按 ID 合并进同一个累加器
func (g *Generator) Generate(
	ctx context.Context,
	rctx *core.RecommendContext,
) (map[string]*core.Candidate, error) {
	if rctx == nil || rctx.ProductID == "" {
		return nil, nil
	}

	covisit := &Covisit{TopN: g.Ncf}
	content := &ContentSim{Service: g.Vector, TopK: g.Kcontent, Timeout: g.Timeout}

	var (
		mu         sync.Mutex
		collabSeed []string
		pool       = make(map[string]*core.Candidate)
	)
	merge := func(cands []*core.Candidate) {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range cands {
			mergeCandidate(pool, c)
		}
	}

	// 1. 协同 + 内容并发 fan-out
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cands, err := covisit.Recall(egCtx, rctx)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, c := range cands {
			collabSeed = append(collabSeed, c.ID)
		}
		mu.Unlock()
		merge(cands)
		return nil
	})
	eg.Go(func() error {
		cands, err := content.Recall(egCtx, rctx)
		if err != nil {
			return err
		}
		merge(cands)
		return nil
	})
	for _, src := range g.Extra {
		s := src
		eg.Go(func() error {
			cands, err := s.Recall(egCtx, rctx)
			if err != nil {
				// 扩展来源失败不拖垮主链路
				return nil
			}
			merge(cands)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 2. enrichment 第二跳（种子顺序固定为协同候选的 lift 序）
	g.enrich(ctx, rctx, collabSeed, pool, &mu)

	return pool, nil
}

// enrich 以每个协同候选为种子做相似检索，结果商品记录
// "与任一种子的最大相似度"。单个种子检索失败只降级该种子。
func (g *Generator) enrich(
	ctx context.Context,
	rctx *core.RecommendContext,
	seeds []string,
	pool map[string]*core.Candidate,
	mu *sync.Mutex,
) {
	if len(seeds) == 0 {
		return
	}

	menrich := g.Menrich
	if menrich <= 0 {
		menrich = core.DefaultMenrich
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, seed := range seeds {
		b := seed
		eg.Go(func() error {
			pairs, err := similarLookup(egCtx, g.Vector, rctx.Snapshot, b, menrich, g.Timeout)
			if err != nil {
				mu.Lock()
				rctx.PutLabel("degraded", utils.Label{Value: "enrich_sim", Source: "recall"})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range pairs {
				c := core.NewCandidate(p.id)
				c.PutScore(core.ScoreEnrich, p.sim)
				c.PutLabel("recall_source", utils.Label{Value: "enrich", Source: "recall"})
				mergeCandidate(pool, c)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// mergeCandidate 把 incoming 合并进池：已存在时只补分数与标签，
// PutScore 的取大语义保证同名分量多路径发现时不会相互覆盖为更小值。
func mergeCandidate(pool map[string]*core.Candidate, incoming *core.Candidate) {
	if incoming == nil {
		return
	}
	old, ok := pool[incoming.ID]
	if !ok {
		pool[incoming.ID] = incoming
		return
	}
	for k, v := range incoming.Scores {
		old.PutScore(k, v)
	}
	for k, v := range incoming.Labels {
		old.PutLabel(k, v)
	}
}

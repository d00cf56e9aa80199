package core

import "github.com/rushteam/relkit/pkg/utils"

// 候选分数来源的标准命名。Scores 的 key 统一使用这些常量，
// 方便打分/解释链路按来源取值。
const (
	ScoreLift    = "lift"        // 协同信号：共现 lift
	ScoreCoCount = "co_count"    // 协同信号：原始共现次数（用于 tie-break）
	ScoreContent = "content_sim" // 内容信号：与目标商品的余弦相似度
	ScoreEnrich  = "enrich_sim"  // 扩展信号：与协同候选的最大余弦相似度
	ScorePopular = "popularity"  // 兜底信号：全局热度
)

// Candidate 是推荐链路中的统一承载结构：一次请求内，一个候选商品只有一个
// Candidate 实例，多个来源发现同一商品时在同一实例上累积各自的原始分数。
// Labels 用于解释与策略驱动；FinalScore 用于排序决策。
type Candidate struct {
	ID         string
	FinalScore float64
	Scores     map[string]float64
	Meta       map[string]any
	Labels     map[string]utils.Label
}

func NewCandidate(id string) *Candidate {
	return &Candidate{
		ID:     id,
		Scores: make(map[string]float64),
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutScore 记录某来源的原始分数。同名来源只增不减：
// 候选可能经由多条路径携带同一信号（例如 enrichment 的多个种子），
// 语义上取最大，不做累加。
func (c *Candidate) PutScore(source string, score float64) {
	if c.Scores == nil {
		c.Scores = make(map[string]float64)
	}
	if old, ok := c.Scores[source]; ok && old >= score {
		return
	}
	c.Scores[source] = score
}

// Score 读取某来源的原始分数，缺失返回 0（缺失分量按 0 参与打分）。
func (c *Candidate) Score(source string) float64 {
	if c.Scores == nil {
		return 0
	}
	return c.Scores[source]
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Recommendation 是 Ranker 的产出：最终分数与各来源分数明细。
// 既可直接返回给调用方，也可作为批处理产物按源商品落盘。
type Recommendation struct {
	ProductID  string             `json:"product_id"`
	FinalScore float64            `json:"final_score"`
	Breakdown  map[string]float64 `json:"breakdown"`
}

// ToRecommendation 将候选转换为对外结果，Breakdown 拷贝一份，
// 避免调用方持有链路内部 map。
func (c *Candidate) ToRecommendation() Recommendation {
	breakdown := make(map[string]float64, len(c.Scores))
	for k, v := range c.Scores {
		breakdown[k] = v
	}
	return Recommendation{
		ProductID:  c.ID,
		FinalScore: c.FinalScore,
		Breakdown:  breakdown,
	}
}

package core

import (
	"fmt"
	"time"
)

// 各配置项的默认值。
const (
	DefaultWeightLift    = 0.4
	DefaultWeightContent = 0.4
	DefaultWeightEnrich  = 0.2

	DefaultNcf      = 10 // 协同候选数
	DefaultKcontent = 10 // 内容候选数
	DefaultMenrich  = 5  // 每个协同候选的扩展候选数

	DefaultMinSupport = 1 // 共现次数低于该值的 pair 不产生 lift
	DefaultTopN       = 5

	DefaultVectorTimeout  = 2 * time.Second
	DefaultMaxConcurrency = 8
)

// Config 枚举了推荐核心的全部可配置项及其默认值。
//
// 设计上替代"到处临时读 map"的动态配置：每个被识别的选项在这里
// 都有显式字段，并在使用任何索引之前通过 Validate 校验
// （非法配置返回 INVALID_CONFIG，而不是运行到一半才失败）。
type Config struct {
	// 混合打分权重：finalScore = WeightLift*normLift + WeightContent*contentSim + WeightEnrich*enrichSim
	// 约定（不强制）三者之和为 1。
	WeightLift    float64 `yaml:"weight_lift" json:"weight_lift"`
	WeightContent float64 `yaml:"weight_content" json:"weight_content"`
	WeightEnrich  float64 `yaml:"weight_enrich" json:"weight_enrich"`

	// 候选池大小
	Ncf      int `yaml:"ncf" json:"ncf"`           // 协同候选数
	Kcontent int `yaml:"kcontent" json:"kcontent"` // 内容候选数
	Menrich  int `yaml:"menrich" json:"menrich"`   // 每个协同候选的第二跳扩展数

	// MinSupport 共现 pair 的最小支持度：加权共现次数低于该值的 pair
	// 被抑制，避免单次偶然同单造成的虚高 lift。
	//
	// 与其它字段不同，0 在这里是有意义的取值（不做任何抑制），但零值
	// 约定又要求 0 表示"未设置"。因此 0 仍补默认值 1；要显式关闭抑制
	// 请设为任意负值（如 -1），Normalize 会将其归一为 0。
	MinSupport float64 `yaml:"min_support" json:"min_support"`

	// TopN 默认返回条数（请求可用 RecommendContext.TopN 覆盖）
	TopN int `yaml:"top_n" json:"top_n"`

	// EventWeights 按事件类型的参与权重。语义：一个商品在一笔交易中的
	// "出现权重"取其全部事件权重的最大值；pair 的共现增量取两侧出现
	// 权重的较小者。默认 purchase=1、cart=0、view=0，即"仅购买共现"——
	// 该默认决定了"关联"的语义，调整前务必明确这一点。
	EventWeights map[EventType]float64 `yaml:"event_weights" json:"event_weights"`

	// VectorTimeout 单次向量检索的超时；超时后该分量降级为 0，请求继续。
	VectorTimeout time.Duration `yaml:"vector_timeout" json:"vector_timeout"`

	// MaxConcurrency 批量预计算的并发 worker 数
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
}

// DefaultConfig 返回带默认值的配置。
func DefaultConfig() Config {
	return Config{
		WeightLift:    DefaultWeightLift,
		WeightContent: DefaultWeightContent,
		WeightEnrich:  DefaultWeightEnrich,
		Ncf:           DefaultNcf,
		Kcontent:      DefaultKcontent,
		Menrich:       DefaultMenrich,
		MinSupport:    DefaultMinSupport,
		TopN:          DefaultTopN,
		EventWeights: map[EventType]float64{
			EventPurchase: 1,
			EventCart:     0,
			EventView:     0,
		},
		VectorTimeout:  DefaultVectorTimeout,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// Normalize 为零值字段补默认值（零值即"未设置"，与 Node 字段的约定一致）。
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.WeightLift == 0 && c.WeightContent == 0 && c.WeightEnrich == 0 {
		c.WeightLift, c.WeightContent, c.WeightEnrich = d.WeightLift, d.WeightContent, d.WeightEnrich
	}
	if c.Ncf == 0 {
		c.Ncf = d.Ncf
	}
	if c.Kcontent == 0 {
		c.Kcontent = d.Kcontent
	}
	if c.Menrich == 0 {
		c.Menrich = d.Menrich
	}
	if c.MinSupport == 0 {
		c.MinSupport = d.MinSupport
	} else if c.MinSupport < 0 {
		// 负值是"显式关闭抑制"的哨兵值，归一为 0
		c.MinSupport = 0
	}
	if c.TopN == 0 {
		c.TopN = d.TopN
	}
	if c.EventWeights == nil {
		c.EventWeights = d.EventWeights
	}
	if c.VectorTimeout == 0 {
		c.VectorTimeout = d.VectorTimeout
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	return c
}

// Validate 在触碰任何索引之前校验配置，非法项返回 INVALID_CONFIG。
func (c Config) Validate() error {
	if c.Ncf <= 0 || c.Kcontent <= 0 || c.Menrich <= 0 {
		return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
			fmt.Sprintf("config: pool sizes must be positive (ncf=%d kcontent=%d menrich=%d)", c.Ncf, c.Kcontent, c.Menrich))
	}
	if c.TopN <= 0 {
		return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
			fmt.Sprintf("config: top_n must be positive, got %d", c.TopN))
	}
	if c.WeightLift < 0 || c.WeightContent < 0 || c.WeightEnrich < 0 {
		return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
			"config: weights must not be negative")
	}
	for typ, w := range c.EventWeights {
		if w < 0 {
			return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
				fmt.Sprintf("config: event weight for %q must not be negative, got %v", typ, w))
		}
	}
	if c.VectorTimeout < 0 {
		return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
			"config: vector_timeout must not be negative")
	}
	if c.MaxConcurrency < 0 {
		return NewDomainError(ModuleConfig, ErrorCodeInvalidConfig,
			"config: max_concurrency must not be negative")
	}
	return nil
}

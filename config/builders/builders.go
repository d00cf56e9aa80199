// Package builders 通过 init 注册全部内置 Node 的配置构建器。
// 配置驱动的入口处空导入本包即可：
//
//	import _ "github.com/rushteam/relkit/config/builders"
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/relkit/config"
	"github.com/rushteam/relkit/filter"
	"github.com/rushteam/relkit/pipeline"
	"github.com/rushteam/relkit/pkg/conv"
	"github.com/rushteam/relkit/rank"
	"github.com/rushteam/relkit/recall"
	"github.com/rushteam/relkit/rerank"
)

func init() {
	config.Register("recall.generator", BuildGeneratorNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildGeneratorNode 构建候选生成 Node。
// VectorService 是运行期依赖，无法从配置构建，走快照内存索引。
func BuildGeneratorNode(cfg map[string]interface{}) (pipeline.Node, error) {
	g := &recall.Generator{
		Ncf:      conv.ConfigGetInt(cfg, "n_cf", 0),
		Kcontent: conv.ConfigGetInt(cfg, "k_content", 0),
		Menrich:  conv.ConfigGetInt(cfg, "m_enrich", 0),
	}
	if sec := conv.ConfigGetFloat(cfg, "vector_timeout", 0); sec > 0 {
		g.Timeout = time.Duration(sec * float64(time.Second))
	}
	return g, nil
}

// BuildFilterNode 构建过滤 Node。filters 省略时使用标准过滤组合
// （目标商品自身 + 不可售）。
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return filter.Default(), nil
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "target":
			filters = append(filters, &filter.TargetFilter{})
		case "availability":
			filters = append(filters, &filter.AvailabilityFilter{})
		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("build rule filter: %w", err)
			}
			filters = append(filters, rf)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildHybridNode 构建加权混合打分 Node。权重全部省略时使用默认权重。
func BuildHybridNode(cfg map[string]interface{}) (pipeline.Node, error) {
	w := conv.ConfigGet[map[string]interface{}](cfg, "weights", nil)
	return &rank.HybridNode{
		WeightLift:    conv.ConfigGetFloat(w, "lift", 0),
		WeightContent: conv.ConfigGetFloat(w, "content", 0),
		WeightEnrich:  conv.ConfigGetFloat(w, "enrich", 0),
	}, nil
}

// BuildTopNNode 构建截断 Node。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

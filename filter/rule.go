package filter

import (
	"context"

	"github.com/rushteam/relkit/core"
	"github.com/rushteam/relkit/pkg/dsl"
)

// RuleFilter 是表达式驱动的过滤器：表达式对候选求值为 true 时过滤。
// 用于配置化的基础业务剔除，例如：
//
//	label.recall_source.contains("enrich") && candidate.scores.enrich_sim < 0.2
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译表达式并构建过滤器。
// 空表达式在 DSL 中是恒真，对过滤器意味着剔除一切，这里直接按非法配置拒绝。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	if expr == "" {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			"filter: rule expression is empty")
	}
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			"filter: invalid rule expression: "+err.Error())
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	return f.rule.Evaluate(c, rctx)
}

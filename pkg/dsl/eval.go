// Package dsl 提供基于 CEL (Common Expression Language) 的候选规则表达式，
// 用于配置驱动的基础业务过滤（例如按召回来源/分数/标签做剔除）。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/relkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的候选规则。表达式编译一次，可对任意候选反复求值，
// 并发安全。
//
// 表达式语法（CEL 标准语法）：
//   - 标签：label.recall_source.contains("covisit")
//   - 分数：candidate.scores.lift > 1.0 / candidate.final_score >= 0.5
//   - 逻辑：label.recall_source.contains("enrich") && candidate.final_score < 0.1
//   - 存在性：label.degraded != null（has 语义用 != null 表达）
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式。空表达式视为恒真。
func Compile(expr string) (*Rule, error) {
	r := &Rule{expr: expr}
	if expr == "" {
		return r, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	r.prg = prg
	return r, nil
}

// Evaluate 对候选求值，返回布尔结果。
func (r *Rule) Evaluate(c *core.Candidate, rctx *core.RecommendContext) (bool, error) {
	if r.prg == nil {
		return true, nil
	}

	out, _, err := r.prg.Eval(buildInput(c, rctx))
	if err != nil {
		// 访问不存在的 key 时 CEL 会报错，存在性检查应使用 label.key != null
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Expr 返回规则的原始表达式。
func (r *Rule) Expr() string { return r.expr }

// buildInput 构建 CEL 求值的输入数据。
func buildInput(c *core.Candidate, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(c.Labels))
	labelAccessor := make(map[string]any, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		// label.recall_source 直接取 value，方便常见写法
		labelAccessor[k] = v.Value
	}

	scores := make(map[string]any, len(c.Scores))
	for k, v := range c.Scores {
		scores[k] = v
	}

	candidate := map[string]any{
		"id":          c.ID,
		"final_score": c.FinalScore,
		"scores":      scores,
		"meta":        c.Meta,
		"labels":      labels,
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput = map[string]any{
			"product_id": rctx.ProductID,
			"scene":      rctx.Scene,
			"params":     rctx.Params,
		}
	}

	return map[string]any{
		"candidate": candidate,
		"label":     labelAccessor,
		"rctx":      rctxInput,
	}
}

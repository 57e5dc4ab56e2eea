// Package dsl 提供基于 CEL 的 Label/Item 表达式求值，用于表达式过滤节点。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pkg/utils"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式，key 为表达式原文
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并缓存结果；同一表达式只编译一次。
// 表达式必须返回 bool，否则返回错误。
func Compile(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	actual, _ := programs.LoadOrStore(expr, prg)
	return actual.(cel.Program), nil
}

// Eval 是 Label DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 可用变量：
//   - item.id / item.score / item.has_score / item.meta / item.labels
//   - label.<key>：label 的 value，例如 label.recall_source == "item_cf"
//   - rctx.user_id / rctx.scene / rctx.params
//   - rctx.labels.<key>：用户级 label 的 value，例如 rctx.labels.history_size
//
// 示例：
//   - `item.score < 3.0` → 预测分低于 3
//   - `label.cf_neighbors == "1"` → 仅由一个邻居支撑的推荐
//   - `"cf_likes" in label && label.cf_likes.startsWith("0/")` → 没有一个邻居喜欢
//   - `int(rctx.labels.history_size) < 5 && item.score < 8.0` → 评分很少的用户只保留高分推荐
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。空表达式视为 true。
// 访问不存在的 label key 会返回错误，请先用 `"key" in label` 判断存在性。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	item := map[string]any{
		"id":        "",
		"score":     0.0,
		"has_score": false,
		"meta":      map[string]any{},
		"labels":    labels,
	}
	var labelAccessor map[string]string
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = map[string]any{
				"value":  v.Value,
				"source": v.Source,
			}
		}
		item["id"] = e.item.ID
		item["score"] = e.item.SortScore()
		item["has_score"] = e.item.HasScore
		if e.item.Meta != nil {
			item["meta"] = e.item.Meta
		}
		labelAccessor = utils.LabelValues(e.item.Labels)
	} else {
		labelAccessor = map[string]string{}
	}

	rctx := map[string]any{
		"user_id": "",
		"scene":   "",
		"params":  map[string]any{},
		"labels":  map[string]string{},
	}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		rctx["scene"] = e.rctx.Scene
		rctx["labels"] = utils.LabelValues(e.rctx.Labels)
		if e.rctx.Params != nil {
			rctx["params"] = e.rctx.Params
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}

package filter

import (
	"context"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤：表达式为 true 时移除物品。
// 例如 `item.score < 6.0` 去掉预测分过低的推荐。
type ExprFilter struct {
	Expr string
}

// NewExprFilter 创建表达式过滤器，并在构建时完成编译校验。
func NewExprFilter(expr string) (*ExprFilter, error) {
	if _, err := dsl.Compile(expr); err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}

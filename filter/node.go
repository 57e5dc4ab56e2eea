package filter

import (
	"context"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
	"github.com/rushteam/cfrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉；保留的物品顺序不变。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

// BindStore 把存储注入到需要它的子过滤器。
func (n *FilterNode) BindStore(s core.Store) {
	for _, f := range n.Filters {
		if b, ok := f.(StoreBinder); ok {
			b.BindStore(s)
		}
	}
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		if p, ok := f.(Preparer); ok {
			prepared, err := p.Prepare(ctx, rctx)
			if err != nil {
				return nil, err
			}
			f = prepared
		}
		filters = append(filters, f)
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时保留物品，不中断流程
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			// 记录过滤原因（用于调试/观测）
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	return out, nil
}

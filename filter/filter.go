package filter

import (
	"context"

	"github.com/rushteam/cfrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：在一次 Process 开始时把依赖存储的数据读出来，
// 返回本次请求使用的过滤器快照，避免逐个 item 访问存储。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// StoreBinder 是可选接口：配置驱动构建的过滤器在构建时拿不到存储，
// 由服务层在 Pipeline 构建完成后注入。
type StoreBinder interface {
	BindStore(s core.Store)
}

// idSet 是按 ID 集合过滤的请求级快照。
type idSet struct {
	name string
	ids  map[string]struct{}
}

func newIDSet(name string, groups ...[]string) *idSet {
	s := &idSet{name: name, ids: make(map[string]struct{})}
	for _, g := range groups {
		for _, id := range g {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *idSet) Name() string { return s.name }

func (s *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s.ids[item.ID]
	return ok, nil
}

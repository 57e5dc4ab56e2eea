package filter

import (
	"context"

	"github.com/rushteam/cfrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单物品 ID 列表
	ItemIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单物品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// BindStore 在未显式设置 Store 时使用注入的存储。
func (f *BlacklistFilter) BindStore(s core.Store) {
	if f.Store == nil && s != nil {
		f.Store = NewStoreAdapter(s)
	}
}

// Prepare 读取一次存储中的黑名单，合并内存列表后返回请求级快照。
// key 不存在视为空黑名单。
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	var stored []string
	if f.Store != nil && f.Key != "" {
		ids, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		stored = ids
	}
	return newIDSet(f.Name(), f.ItemIDs, stored), nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	snapshot, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return snapshot.ShouldFilter(ctx, rctx, item)
}

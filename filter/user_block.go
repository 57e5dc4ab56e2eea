package filter

import (
	"context"

	"github.com/rushteam/cfrec/core"
)

// UserBlockFilter 是用户屏蔽过滤器，过滤掉用户明确表示不想再看到的物品。
type UserBlockFilter struct {
	// Store 用于从存储中读取用户屏蔽列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户屏蔽列表存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户屏蔽的物品 ID 列表
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// DefaultUserBlockPrefix 是未配置 key_prefix 时使用的前缀。
const DefaultUserBlockPrefix = "user:block"

// NewUserBlockFilter 创建一个用户屏蔽过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store UserBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

// BindStore 在未显式设置 Store 时使用注入的存储。
func (f *UserBlockFilter) BindStore(s core.Store) {
	if f.Store == nil && s != nil {
		f.Store = NewStoreAdapter(s)
	}
}

// Prepare 读取一次当前用户的屏蔽列表。
func (f *UserBlockFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return newIDSet(f.Name()), nil
	}
	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultUserBlockPrefix
	}
	blocked, err := f.Store.GetUserBlocks(ctx, rctx.UserID, keyPrefix)
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}
	return newIDSet(f.Name(), blocked), nil
}

func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	snapshot, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return snapshot.ShouldFilter(ctx, rctx, item)
}

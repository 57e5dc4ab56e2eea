package filter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 列表类数据统一以 JSON 字符串数组存放，例如 `["0439023483","0060928336"]`。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode id list %s: %w", key, err)
	}
	return ids, nil
}

// GetUserBlocks 从 Store 读取用户屏蔽列表。
func (a *StoreAdapter) GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+userID)
}

// PutIDs 把 ID 列表写入 Store，用于初始化黑名单或屏蔽列表。
func (a *StoreAdapter) PutIDs(ctx context.Context, key string, ids []string, ttl ...int) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data, ttl...)
}

package dataset

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/core"
)

// StoreSource 从 core.Store 的一个 key 读取评分表。
// value 为 JSON 数组：[{"user":"276725","item":"034545104X","rating":0}, ...]
type StoreSource struct {
	Store core.Store
	Key   string
}

func NewStoreSource(s core.Store, key string) *StoreSource {
	return &StoreSource{Store: s, Key: key}
}

func (s *StoreSource) Name() string { return "store:" + s.Store.Name() }

func (s *StoreSource) Location() string { return s.Key }

// Load 读取并清洗评分表。key 不存在返回 core.ErrDataUnavailable，JSON 无法解析返回 core.ErrSchemaInvalid。
func (s *StoreSource) Load(ctx context.Context) (core.RatingTable, error) {
	data, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeNotFound,
				fmt.Sprintf("ratings key %s not found in %s store", s.Key, s.Store.Name()), err)
		}
		return nil, fmt.Errorf("read ratings key %s: %w", s.Key, err)
	}

	var raw core.RatingTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidSchema,
			fmt.Sprintf("ratings key %s is not a record array", s.Key), err)
	}

	table := make(core.RatingTable, 0, len(raw))
	for _, rec := range raw {
		if rec, ok := Normalize(rec); ok {
			table = append(table, rec)
		}
	}
	return table, nil
}

// Put 把评分表写入 Store，供 StoreSource 读取。
func Put(ctx context.Context, s core.Store, key string, table core.RatingTable, ttl ...int) error {
	if table == nil {
		table = core.RatingTable{}
	}
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	return s.Set(ctx, key, data, ttl...)
}

var _ core.RatingSource = (*StoreSource)(nil)

// Package store 提供 core.Store 的内存与 Redis 实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	s = store.WithPrefix(s, "cfrec")
package store

import (
	"context"
	"strings"

	"github.com/rushteam/cfrec/core"
)

// ErrNotFound 与 core.ErrStoreNotFound 相同，便于在 store 包内直接引用。
var ErrNotFound = core.ErrStoreNotFound

// prefixed 给所有 key 加上统一前缀，多个部署共用一个 Redis 时互不干扰。
type prefixed struct {
	inner  core.Store
	prefix string
}

// WithPrefix 返回一个自动添加 "{prefix}:" 前缀的 Store；prefix 为空时原样返回。
func WithPrefix(s core.Store, prefix string) core.Store {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + ":"}
}

func (p *prefixed) Name() string { return p.inner.Name() }

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return p.inner.Set(ctx, p.prefix+key, value, ttl...)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	vals, err := p.inner.BatchGet(ctx, full)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(vals))
	for k, v := range vals {
		out[strings.TrimPrefix(k, p.prefix)] = v
	}
	return out, nil
}

func (p *prefixed) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	full := make(map[string][]byte, len(kvs))
	for k, v := range kvs {
		full[p.prefix+k] = v
	}
	return p.inner.BatchSet(ctx, full, ttl...)
}

func (p *prefixed) Close() error { return p.inner.Close() }

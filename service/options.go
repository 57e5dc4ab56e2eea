package service

import (
	"time"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
)

// Option 配置 Recommender。
type Option func(*Recommender)

// WithStore 设置二级索引缓存（Memory/Redis）。未设置时只使用进程内缓存。
func WithStore(s core.Store) Option {
	return func(r *Recommender) {
		r.store = s
	}
}

// WithPipeline 替换默认的 item_cf → topn 节点链。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Recommender) {
		r.pipeline = p
	}
}

// WithWorkers 设置默认 Pipeline 中 item_cf 召回的打分并发度。
func WithWorkers(n int) Option {
	return func(r *Recommender) {
		r.workers = n
	}
}

// WithIndexTTL 设置写入 Store 的索引过期时间；0 表示不过期。
func WithIndexTTL(d time.Duration) Option {
	return func(r *Recommender) {
		r.indexTTL = d
	}
}

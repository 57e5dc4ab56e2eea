// Package recall 提供召回阶段的 Node：从评分索引生成带分数的候选集。
package recall

import (
	"context"

	"github.com/rushteam/cfrec/core"
)

// Source 表示一个可复用的召回源。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

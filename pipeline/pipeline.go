package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/cfrec/core"
)

// Hook 在每个 Node 执行完成后被调用，用于按阶段打点或记录日志。
type Hook func(ctx context.Context, node Node, in, out int, elapsed time.Duration, err error)

// Pipeline 把推荐逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
	Hooks []Hook
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		for _, h := range p.Hooks {
			h(ctx, node, len(cur), len(next), time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	if cur == nil {
		cur = []*core.Item{}
	}
	return cur, nil
}

// Package rerank 提供重排阶段的 Node。
package rerank

import (
	"context"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在召回、过滤之后截取前 N 个物品。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.ItemCF{},
//	        &filter.FilterNode{...},
//	        &rerank.TopNNode{}, // 按请求的 top_n 截断
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则使用 rctx.Rank.TopN；两者都 <= 0 时返回所有物品
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Rank.TopN
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

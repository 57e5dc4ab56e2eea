package recall

import (
	"context"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
	"github.com/rushteam/cfrec/pkg/utils"
)

// LabelRecallSource 标记候选来自哪个召回源。
const LabelRecallSource = "recall_source"

// ItemCF 是基于物品相似度的召回：对用户未评分的每个物品，
// 用其与用户已评分物品的余弦相似度做加权平均打分。
//
// 参数取自 rctx.Rank（KNeighbors、LikeThreshold、MinOverlap），召回阶段不截断，
// 全部候选按分数降序输出，由后续的 rerank.topn 截断。
type ItemCF struct {
	// Workers 是打分并发度，<= 1 时顺序执行
	Workers int
}

func (r *ItemCF) Name() string {
	return "recall.item_cf"
}

func (r *ItemCF) Kind() pipeline.Kind {
	return pipeline.KindRecall
}

// Recall 实现 Source。rctx.Index 为空时返回空列表。
func (r *ItemCF) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.Index == nil || rctx.UserID == "" {
		return []*core.Item{}, nil
	}
	params := rctx.Rank
	params.TopN = 0
	items, err := cf.RankForUser(ctx, rctx.Index, rctx.UserID, params, cf.WithWorkers(r.Workers))
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.PutLabel(LabelRecallSource, utils.Label{Value: "item_cf", Source: "recall"})
	}
	return items, nil
}

// Process 忽略上游 items，输出召回结果。
func (r *ItemCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

var (
	_ Source        = (*ItemCF)(nil)
	_ pipeline.Node = (*ItemCF)(nil)
)

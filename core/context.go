package core

import "github.com/rushteam/cfrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户、索引快照与参数，贯穿整个 Pipeline 透传。
// 它是请求级的值，请求结束即丢弃。
type RecommendContext struct {
	UserID string
	Scene  string

	// Index 是本次请求使用的只读评分索引快照
	Index *RatingIndex

	// Rank 是本次请求的排序参数（已在边界校验）
	Rank RankParams

	// Labels 是用户级标签，过滤表达式通过 rctx.labels.xxx 读取
	Labels map[string]utils.Label

	// Params 请求级附加参数，可被过滤表达式读取（rctx.params.xxx）
	Params map[string]any
}

// LabelHistorySize 是用户已评分物品数，由 service 在推荐前写入。
const LabelHistorySize = "history_size"

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

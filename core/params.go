package core

import "fmt"

// 引擎的所有阈值都是显式入参，核心层不内置默认值。
// 默认值由调用层（config.Defaults）选择，在边界处校验后传入。

// RankParams 是 item-based 加权排序（多物品推荐）的参数。
type RankParams struct {
	// KNeighbors 每个候选物品取的相似邻居数
	KNeighbors int `json:"k_neighbors"`

	// TopN 最终返回数量；<= 0 表示不截断（由 Pipeline 后续节点截断）
	TopN int `json:"top_n"`

	// LikeThreshold 用户评分 >= 该值视为"喜欢"，仅用于解释信息
	LikeThreshold float64 `json:"like_threshold"`

	// MinOverlap 两个物品至少需要的共同评分用户数
	MinOverlap int `json:"min_overlap"`
}

// SimilarParams 是相似物品查询的参数。
type SimilarParams struct {
	TopN       int `json:"top_n"`
	MinOverlap int `json:"min_overlap"`
}

// TieBreak 是多数投票平票时的裁决方式。
type TieBreak string

const (
	TieBreakFavorLike    TieBreak = "favor-like"
	TieBreakFavorDislike TieBreak = "favor-dislike"
)

// ParseTieBreak 解析平票裁决方式。
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case TieBreakFavorLike, TieBreakFavorDislike:
		return TieBreak(s), nil
	default:
		return "", NewDomainError(ModuleService, ErrorCodeInvalidInput, fmt.Sprintf("unknown tie break %q", s))
	}
}

// PredictParams 是单物品喜欢/不喜欢多数投票的参数。
type PredictParams struct {
	// K 参与投票的相似用户数
	K int `json:"k"`

	// LikeThreshold 邻居评分 >= 该值投"喜欢"
	LikeThreshold float64 `json:"like_threshold"`

	// TieBreak 平票时的裁决方式
	TieBreak TieBreak `json:"tie_break"`

	// MinOverlap 用户相似度的最小共同物品数；0 表示不设门槛（历史行为）
	MinOverlap int `json:"min_overlap"`
}

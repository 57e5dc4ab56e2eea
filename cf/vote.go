package cf

import (
	"sort"

	"github.com/rushteam/cfrec/core"
)

// Prediction 是单物品多数投票的结果。
type Prediction struct {
	// Known 为 false 表示没有合格邻居，无法预测；调用方不能把它当作"不喜欢"
	Known bool

	// Like 是投票结论，仅在 Known 为 true 时有意义
	Like bool

	Likes    int
	Dislikes int

	// Neighbors 是参与投票的邻居（按相似度降序），Rating 为其对目标物品的评分
	Neighbors []Neighbor
}

// Value 返回 1（喜欢）/ 0（不喜欢），无法预测时 ok 为 false。
func (p Prediction) Value() (vote int, ok bool) {
	if !p.Known {
		return 0, false
	}
	if p.Like {
		return 1, true
	}
	return 0, true
}

// PredictLike 是 user-based 邻居投票的二元分类（喜欢 / 不喜欢）。
//
// 算法流程：
//  1. 邻居 = 评过目标物品、且与目标用户相似度 > 0 的其他用户
//     （Similarity 基于 RatingIndex.Users；MinOverlap 为 0 时不设门槛）
//  2. 按相似度降序取前 K 个
//  3. 没有邻居 → Known=false
//  4. 邻居评分 >= LikeThreshold 投 1，否则投 0
//  5. 多数决；票数相同时按 TieBreak 裁决
func PredictLike(idx *core.RatingIndex, userID, itemID string, p core.PredictParams) Prediction {
	raters := idx.ItemRatings(itemID)
	if len(raters) == 0 || len(idx.UserRatings(userID)) == 0 {
		return Prediction{}
	}

	others := make([]string, 0, len(raters))
	for u := range raters {
		if u != userID {
			others = append(others, u)
		}
	}
	sort.Strings(others)

	candidates := make([]Neighbor, 0, len(others))
	for _, u := range others {
		res := Similarity(userID, u, idx.Users, p.MinOverlap)
		if res.Similarity <= 0 {
			continue
		}
		candidates = append(candidates, Neighbor{
			ID:         u,
			Similarity: res.Similarity,
			Overlap:    res.Overlap,
			Rating:     raters[u],
			HasRating:  true,
		})
	}

	top := TopK(candidates, p.K)
	if len(top) == 0 {
		return Prediction{}
	}

	pred := Prediction{Known: true, Neighbors: top}
	for _, n := range top {
		if n.Rating >= p.LikeThreshold {
			pred.Likes++
		} else {
			pred.Dislikes++
		}
	}

	switch {
	case pred.Likes > pred.Dislikes:
		pred.Like = true
	case pred.Dislikes > pred.Likes:
		pred.Like = false
	default:
		pred.Like = p.TieBreak != core.TieBreakFavorDislike
	}
	return pred
}

package cf

import (
	"context"
	"math"
	"slices"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pkg/utils"
)

// Option 配置 RankForUser 的执行方式，不影响结果。
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers 设置候选物品打分的并发数；<= 1 时顺序执行。
// 每个候选写入各自的槽位，并发与顺序执行的输出完全一致。
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// RankForUser 是 item-based 加权评分排序（多物品推荐）。
//
// 算法流程：
//  1. 用户没有评分 → 空列表
//  2. 候选 = 所有物品 − 用户已评分物品，按 ID 排序迭代
//  3. 对每个候选 C、用户评过的每个物品 B 计算 Similarity(C, B)，保留相似度 > 0 的邻居
//  4. 没有邻居的候选本轮跳过
//  5. 取 TopK(KNeighbors) 邻居
//  6. score(C) = Σ(sim·r(B)) / Σ|sim|，分母为 0 时为 0，保留 4 位小数
//  7. 解释信息：邻居数、最小重叠、喜欢的邻居数 / 邻居总数
//  8. 按分数降序稳定排序，截断到 TopN（TopN <= 0 不截断）
//
// 唯一的错误来源是 ctx 被取消（宿主设置的计算预算）。
func RankForUser(
	ctx context.Context,
	idx *core.RatingIndex,
	userID string,
	p core.RankParams,
	opts ...Option,
) ([]*core.Item, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	userItems := idx.UserRatings(userID)
	if len(userItems) == 0 {
		return []*core.Item{}, nil
	}

	candidates := make([]string, 0, len(idx.Items))
	for itemID := range idx.Items {
		if _, rated := userItems[itemID]; rated {
			continue
		}
		candidates = append(candidates, itemID)
	}
	sort.Strings(candidates)
	rated := sortedKeys(userItems)

	slots := make([]*core.Item, len(candidates))
	if o.workers <= 1 {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slots[i] = scoreCandidate(idx, c, rated, userItems, p)
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(o.workers)
		for i, c := range candidates {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				slots[i] = scoreCandidate(idx, c, rated, userItems, p)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]*core.Item, 0, len(slots))
	for _, it := range slots {
		if it != nil {
			out = append(out, it)
		}
	}
	SortByScore(out)
	if p.TopN > 0 && len(out) > p.TopN {
		out = out[:p.TopN]
	}
	return out, nil
}

// scoreCandidate 计算单个候选物品的加权分数，没有正相似邻居时返回 nil。
func scoreCandidate(
	idx *core.RatingIndex,
	candidate string,
	rated []string,
	userItems map[string]float64,
	p core.RankParams,
) *core.Item {
	neighbors := make([]Neighbor, 0, len(rated))
	for _, b := range rated {
		res := Similarity(candidate, b, idx.Items, p.MinOverlap)
		if res.Similarity <= 0 { // 只保留正相似度
			continue
		}
		neighbors = append(neighbors, Neighbor{
			ID:         b,
			Similarity: res.Similarity,
			Overlap:    res.Overlap,
			Rating:     userItems[b],
			HasRating:  true,
		})
	}
	if len(neighbors) == 0 {
		return nil
	}

	top := TopK(neighbors, p.KNeighbors)

	var num, den float64
	likes := 0
	for _, n := range top {
		num += n.Similarity * n.Rating
		den += math.Abs(n.Similarity)
		if n.Rating >= p.LikeThreshold {
			likes++
		}
	}
	score := 0.0
	if den != 0 {
		score = Round4(num / den)
	}

	it := core.NewItem(candidate)
	it.SetScore(score)
	it.PutLabel(core.LabelNeighbors, utils.Label{Value: strconv.Itoa(len(top)), Source: "cf"})
	it.PutLabel(core.LabelMinOverlap, utils.Label{Value: strconv.Itoa(p.MinOverlap), Source: "cf"})
	it.PutLabel(core.LabelLikes, utils.Label{
		Value:  strconv.Itoa(likes) + "/" + strconv.Itoa(len(top)),
		Source: "cf",
	})
	return it
}

// SimilarItems 把除 itemID 外的所有物品按与 itemID 的相似度排序，返回前 TopN 个。
// 只保留相似度 > 0 的物品；其他物品按 ID 顺序迭代，相似度相同时保持该顺序。
// 未知物品返回空列表。
func SimilarItems(idx *core.RatingIndex, itemID string, p core.SimilarParams) []Neighbor {
	if len(idx.ItemRatings(itemID)) == 0 {
		return []Neighbor{}
	}

	others := make([]string, 0, len(idx.Items))
	for id := range idx.Items {
		if id != itemID {
			others = append(others, id)
		}
	}
	sort.Strings(others)

	candidates := make([]Neighbor, 0, len(others))
	for _, other := range others {
		res := Similarity(itemID, other, idx.Items, p.MinOverlap)
		if res.Similarity <= 0 {
			continue
		}
		candidates = append(candidates, Neighbor{
			ID:         other,
			Similarity: res.Similarity,
			Overlap:    res.Overlap,
		})
	}
	return TopK(candidates, p.TopN)
}

// SortByScore 按分数降序稳定排序，缺失分数按 0.0 处理。
func SortByScore(items []*core.Item) {
	slices.SortStableFunc(items, func(a, b *core.Item) int {
		sa, sb := a.SortScore(), b.SortScore()
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
}

// Round4 保留 4 位小数。
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package cf

import "slices"

// Neighbor 是一个相似实体（物品或用户）。
type Neighbor struct {
	ID         string
	Similarity float64
	Overlap    int

	// Rating 是该邻居在目标上的评分；HasRating 为 false 表示缺失
	Rating    float64
	HasRating bool
}

// TopK 按相似度降序返回前 k 个候选。
//
// 只按相似度排序：相似度相同的候选保持输入中的相对顺序（稳定排序），
// Overlap 与 ID 都不参与比较。k <= 0 返回空；候选不足 k 个时全部返回。
// 调用方负责事先剔除相似度 <= 0 的候选。输入切片不会被修改。
func TopK(candidates []Neighbor, k int) []Neighbor {
	if k <= 0 || len(candidates) == 0 {
		return []Neighbor{}
	}
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Neighbor) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

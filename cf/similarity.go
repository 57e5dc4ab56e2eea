package cf

import (
	"math"
	"sort"

	"github.com/rushteam/cfrec/core"
)

// SimilarityResult 是一次两两比较的结果。
type SimilarityResult struct {
	// Similarity 余弦相似度，范围 [-1, 1]
	Similarity float64

	// Overlap 共同评分维度数
	Overlap int
}

// Similarity 计算 a、b 两个实体在共同评分维度上的余弦相似度（cosine on overlap）。
//
// ratings 决定比较方向：item-item 传 RatingIndex.Items，user-user 传 RatingIndex.Users。
//
// 规则：
//   - 任一实体不存在或没有评分 → (0, 0)
//   - 共同维度数 < minOverlap → (0, overlap)，硬门槛而非降权
//   - 分子与两个范数都只在共同维度上求和
//   - 任一范数为 0 → (0, overlap)
func Similarity(aID, bID string, ratings core.Ratings, minOverlap int) SimilarityResult {
	u1, u2 := ratings[aID], ratings[bID]
	if len(u1) == 0 || len(u2) == 0 {
		return SimilarityResult{}
	}

	common := commonKeys(u1, u2)
	overlap := len(common)
	if overlap < minOverlap {
		return SimilarityResult{Overlap: overlap}
	}

	var num, ss1, ss2 float64
	for _, k := range common {
		x, y := u1[k], u2[k]
		num += x * y
		ss1 += x * x
		ss2 += y * y
	}

	d1, d2 := math.Sqrt(ss1), math.Sqrt(ss2)
	if d1 == 0 || d2 == 0 {
		return SimilarityResult{Overlap: overlap}
	}
	// 舍入误差可能使结果略超出 [-1, 1]
	sim := math.Max(-1, math.Min(1, num/(d1*d2)))
	return SimilarityResult{
		Similarity: sim,
		Overlap:    overlap,
	}
}

// commonKeys 返回两个评分向量的共同维度，按 key 排序。
// 固定求和顺序，保证 Similarity(a, b) 与 Similarity(b, a) 逐位相等、多次调用结果一致。
func commonKeys(u1, u2 map[string]float64) []string {
	small, large := u1, u2
	if len(small) > len(large) {
		small, large = large, small
	}
	common := make([]string, 0, len(small))
	for k := range small {
		if _, ok := large[k]; ok {
			common = append(common, k)
		}
	}
	sort.Strings(common)
	return common
}

package cf

import "github.com/rushteam/cfrec/core"

// BuildIndex 一次遍历评分表，构建 Users[user][item] 与 Items[item][user]。
// 同一 (user, item) 重复出现时后写覆盖先写。不做任何校验。
func BuildIndex(table core.RatingTable) *core.RatingIndex {
	idx := &core.RatingIndex{
		Users: make(core.Ratings),
		Items: make(core.Ratings),
	}
	for _, rec := range table {
		if idx.Users[rec.UserID] == nil {
			idx.Users[rec.UserID] = make(map[string]float64)
		}
		idx.Users[rec.UserID][rec.ItemID] = rec.Rating

		if idx.Items[rec.ItemID] == nil {
			idx.Items[rec.ItemID] = make(map[string]float64)
		}
		idx.Items[rec.ItemID][rec.UserID] = rec.Rating
	}
	return idx
}

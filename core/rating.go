package core

// RatingRecord 是一条 (user, item, rating) 评分记录。
// user/item 在数据加载阶段已规范化为非空字符串，rating 为有限浮点数。
type RatingRecord struct {
	UserID string  `json:"user"`
	ItemID string  `json:"item"`
	Rating float64 `json:"rating"`
}

// RatingTable 是有序的评分记录序列，不保证去重。
// 折叠进索引时同一 (user, item) 后写覆盖先写。
type RatingTable []RatingRecord

// Ratings 是 实体 ID → (对端 ID → 评分) 的映射。
// 物品-物品相似度使用 RatingIndex.Items，用户-用户相似度使用 RatingIndex.Users。
type Ratings map[string]map[string]float64

// RatingIndex 是从 RatingTable 派生的只读视图。
type RatingIndex struct {
	// Users: user → item → rating
	Users Ratings `json:"users"`

	// Items: item → user → rating
	Items Ratings `json:"items"`
}

// UserRatings 返回用户的评分，用户不存在时返回 nil。
func (idx *RatingIndex) UserRatings(userID string) map[string]float64 {
	if idx == nil {
		return nil
	}
	return idx.Users[userID]
}

// ItemRatings 返回物品收到的评分，物品不存在时返回 nil。
func (idx *RatingIndex) ItemRatings(itemID string) map[string]float64 {
	if idx == nil {
		return nil
	}
	return idx.Items[itemID]
}

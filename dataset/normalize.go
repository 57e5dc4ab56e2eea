package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/rushteam/cfrec/core"
)

// Normalize 清洗一条评分记录，返回 false 表示该行应被丢弃。
func Normalize(rec core.RatingRecord) (core.RatingRecord, bool) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.ItemID = strings.TrimSpace(rec.ItemID)
	if rec.UserID == "" || rec.ItemID == "" {
		return core.RatingRecord{}, false
	}
	if math.IsNaN(rec.Rating) || math.IsInf(rec.Rating, 0) {
		return core.RatingRecord{}, false
	}
	return rec, true
}

// NormalizeFields 从原始字符串构造并清洗记录。
func NormalizeFields(user, item, rating string) (core.RatingRecord, bool) {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return core.RatingRecord{}, false
	}
	r, err := strconv.ParseFloat(rating, 64)
	if err != nil {
		return core.RatingRecord{}, false
	}
	return Normalize(core.RatingRecord{UserID: user, ItemID: item, Rating: r})
}

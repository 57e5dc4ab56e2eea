package core

import (
	"strings"

	"github.com/rushteam/cfrec/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Labels 不参与排序。
type Item struct {
	ID string

	// Score 推荐分数；HasScore 为 false 时表示分数缺失，排序时按 0.0 处理
	Score    float64
	HasScore bool

	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// SetScore 写入分数并标记为已打分。
func (it *Item) SetScore(score float64) {
	it.Score = score
	it.HasScore = true
}

// SortScore 返回排序使用的分数，缺失时为 0.0。
func (it *Item) SortScore() float64 {
	if it == nil || !it.HasScore {
		return 0
	}
	return it.Score
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 获取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}

// 解释信息使用的 label key
const (
	LabelNeighbors  = "cf_neighbors"
	LabelMinOverlap = "cf_min_overlap"
	LabelLikes      = "cf_likes"
)

// Explain 把解释类 label 渲染为一行文本，例如 "neighbors=3 min_overlap=3 likes=2/3"。
// 没有任何解释 label 时返回 ("", false)。
func (it *Item) Explain() (string, bool) {
	if it == nil || len(it.Labels) == 0 {
		return "", false
	}
	ordered := []struct{ key, name string }{
		{LabelNeighbors, "neighbors"},
		{LabelMinOverlap, "min_overlap"},
		{LabelLikes, "likes"},
	}
	parts := make([]string, 0, len(ordered))
	for _, o := range ordered {
		if lbl, ok := it.Labels[o.key]; ok && lbl.Value != "" {
			parts = append(parts, o.name+"="+lbl.Value)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// LabelKeys 返回排序后的 label key，便于稳定输出。
func (it *Item) LabelKeys() []string {
	return utils.SortedKeys(it.Labels)
}

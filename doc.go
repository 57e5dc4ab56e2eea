// Package cfrec 是一个基于评分的协同过滤推荐服务（书籍 / 游戏）。
//
// 设计要点：
// - 引擎纯函数化：cf 包只依赖不可变的 RatingIndex，所有阈值显式传入
// - Pipeline-first：推荐经过 recall.item_cf → filter → rerank.topn 的 Node 链，可由 YAML 配置
// - Labels-first：解释信息通过 labels 全链路透传，接口层渲染为 reason
// - 数据加载与存储可替换：RatingSource（CSV / Store）、Store（Memory / Redis）
package cfrec

import (
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
)

// 轻量 facade：便于直接 import "cfrec" 使用核心抽象。
type (
	Pipeline     = pipeline.Pipeline
	Node         = pipeline.Node
	Kind         = pipeline.Kind
	RatingTable  = core.RatingTable
	RatingSource = core.RatingSource
	Store        = core.Store
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

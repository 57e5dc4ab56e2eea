// Package service 是推荐引擎的操作入口：懒加载评分表、缓存索引、执行 Pipeline。
package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/dataset"
	"github.com/rushteam/cfrec/filter"
	"github.com/rushteam/cfrec/pipeline"
	"github.com/rushteam/cfrec/pkg/logging"
	"github.com/rushteam/cfrec/pkg/metrics"
	"github.com/rushteam/cfrec/pkg/utils"
	"github.com/rushteam/cfrec/recall"
	"github.com/rushteam/cfrec/rerank"
)

// Recommender 对外提供推荐、相似物品、喜欢预测与数据集信息。
//
// 评分表在第一次调用时通过 RatingSource 加载；加载失败原样返回错误，下一次调用重试。
// 加载成功后评分表与索引在进程生命周期内不可变，所有方法可并发调用。
type Recommender struct {
	source   core.RatingSource
	store    core.Store
	pipeline *pipeline.Pipeline
	workers  int
	indexTTL time.Duration

	mu       sync.RWMutex
	snapshot *snapshot
	group    singleflight.Group
}

// snapshot 是一次成功加载的评分表及其索引。
type snapshot struct {
	table       core.RatingTable
	index       *core.RatingIndex
	fingerprint string
	loadedAt    time.Time
}

// DatasetInfo 描述当前加载的数据集。
type DatasetInfo struct {
	Source      string    `json:"source"`
	Location    string    `json:"location"`
	Records     int       `json:"records"`
	Users       int       `json:"users"`
	Items       int       `json:"items"`
	Fingerprint string    `json:"fingerprint"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// New 创建 Recommender。不会立即加载数据。
func New(source core.RatingSource, opts ...Option) (*Recommender, error) {
	if source == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "rating source is required")
	}
	r := &Recommender{source: source}
	for _, opt := range opts {
		opt(r)
	}
	if r.pipeline == nil {
		r.pipeline = &pipeline.Pipeline{
			Nodes: []pipeline.Node{
				&recall.ItemCF{Workers: r.workers},
				&rerank.TopNNode{},
			},
		}
	}
	for _, n := range r.pipeline.Nodes {
		if b, ok := n.(filter.StoreBinder); ok && r.store != nil {
			b.BindStore(r.store)
		}
	}
	r.pipeline.Hooks = append(r.pipeline.Hooks, observeNode)
	return r, nil
}

func observeNode(ctx context.Context, node pipeline.Node, in, out int, elapsed time.Duration, err error) {
	metrics.ObserveNode(node.Name(), string(node.Kind()), elapsed)
	ev := logging.Ctx(ctx).Debug()
	if err != nil {
		ev = logging.Ctx(ctx).Warn().Err(err)
	}
	ev.Str("node", node.Name()).Int("in", in).Int("out", out).Dur("elapsed", elapsed).Msg("pipeline node")
}

// Location 返回数据源位置，不触发加载。
func (r *Recommender) Location() string {
	return r.source.Location()
}

// load 返回当前快照；尚未加载时加载一次。并发调用合并为一次加载。
func (r *Recommender) load(ctx context.Context) (*snapshot, error) {
	r.mu.RLock()
	snap := r.snapshot
	r.mu.RUnlock()
	if snap != nil {
		metrics.RecordIndexCache("memory", true)
		return snap, nil
	}

	v, err, _ := r.group.Do("load", func() (any, error) {
		r.mu.RLock()
		snap := r.snapshot
		r.mu.RUnlock()
		if snap != nil {
			return snap, nil
		}
		metrics.RecordIndexCache("memory", false)

		// 加载结果被所有等待者共享，不受单个调用方取消的影响
		loadCtx := context.WithoutCancel(ctx)
		start := time.Now()
		table, err := r.source.Load(loadCtx)
		if err != nil {
			metrics.RecordDatasetLoad("error", 0)
			logging.Ctx(ctx).Error().Err(err).
				Str("source", r.source.Name()).
				Str("location", r.source.Location()).
				Msg("rating dataset load failed")
			return nil, err
		}
		metrics.RecordDatasetLoad("ok", len(table))

		ev := logging.Ctx(ctx).Info().
			Str("source", r.source.Name()).
			Str("location", r.source.Location()).
			Int("records", len(table)).
			Dur("elapsed", time.Since(start))
		if s, ok := r.source.(interface{ Stats() dataset.Stats }); ok {
			st := s.Stats()
			ev = ev.Int("dropped", st.Dropped)
		}
		ev.Msg("rating dataset loaded")

		fp := Fingerprint(table)
		snap = &snapshot{
			table:       table,
			index:       r.buildIndex(loadCtx, fp, table),
			fingerprint: fp,
			loadedAt:    time.Now(),
		}
		r.mu.Lock()
		r.snapshot = snap
		r.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

// RecommendForUser 为用户推荐其未评分的物品（item-based 加权评分），经过 Pipeline 过滤与截断。
// 未知用户返回空列表。
func (r *Recommender) RecommendForUser(ctx context.Context, userID string, p core.RankParams) (items []*core.Item, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "recommend", start, err) }()

	if userID == "" {
		return nil, invalidInput("user_id is required")
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "recommend",
		Index:  snap.index,
		Rank:   p,
		Params: map[string]any{},
	}
	rctx.PutLabel(core.LabelHistorySize, utils.Label{
		Value:  strconv.Itoa(len(snap.index.UserRatings(userID))),
		Source: "index",
	})
	items, err = r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	// 配置的 Pipeline 不一定包含 rerank.topn，这里保证结果不超过请求的 top_n
	if p.TopN > 0 && len(items) > p.TopN {
		items = items[:p.TopN]
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Int("results", len(items)).Msg("recommend")
	return items, nil
}

// SimilarItems 返回与 itemID 相似度为正的物品，未知物品返回空列表。
func (r *Recommender) SimilarItems(ctx context.Context, itemID string, p core.SimilarParams) (out []cf.Neighbor, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "similar", start, err) }()

	if itemID == "" {
		return nil, invalidInput("item_id is required")
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return cf.SimilarItems(snap.index, itemID, p), nil
}

// PredictLike 用相似用户的多数投票预测用户是否喜欢 itemID。
// 没有可用邻居时 Prediction.Known 为 false。
func (r *Recommender) PredictLike(ctx context.Context, userID, itemID string, p core.PredictParams) (pred cf.Prediction, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "predict", start, err) }()

	if userID == "" || itemID == "" {
		return cf.Prediction{}, invalidInput("user_id and item_id are required")
	}
	if _, err := core.ParseTieBreak(string(p.TieBreak)); err != nil {
		return cf.Prediction{}, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return cf.Prediction{}, err
	}
	pred = cf.PredictLike(snap.index, userID, itemID, p)
	switch vote, ok := pred.Value(); {
	case !ok:
		metrics.RecordPrediction("unknown")
	case vote == 1:
		metrics.RecordPrediction("like")
	default:
		metrics.RecordPrediction("dislike")
	}
	return pred, nil
}

// DatasetInfo 返回数据集统计，必要时触发加载。
func (r *Recommender) DatasetInfo(ctx context.Context) (info DatasetInfo, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "dataset", start, err) }()

	snap, err := r.load(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	return DatasetInfo{
		Source:      r.source.Name(),
		Location:    r.source.Location(),
		Records:     len(snap.table),
		Users:       len(snap.index.Users),
		Items:       len(snap.index.Items),
		Fingerprint: snap.fingerprint,
		LoadedAt:    snap.loadedAt,
	}, nil
}

// ListUsers 返回所有有评分的用户 ID（排序）。
func (r *Recommender) ListUsers(ctx context.Context) ([]string, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return sortedIDs(snap.index.Users), nil
}

// CandidateItems 返回用户尚未评分的物品 ID（排序）；未知用户返回全部物品。
func (r *Recommender) CandidateItems(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, invalidInput("user_id is required")
	}
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rated := snap.index.UserRatings(userID)
	out := make([]string, 0, len(snap.index.Items))
	for _, id := range sortedIDs(snap.index.Items) {
		if _, ok := rated[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *Recommender) observe(ctx context.Context, op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	case core.IsInvalidInput(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.ObserveOperation(op, outcome, time.Since(start))
	if err != nil && outcome != "invalid" {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("operation failed")
	}
}

func invalidInput(msg string) error {
	return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msg)
}

func sortedIDs(m core.Ratings) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

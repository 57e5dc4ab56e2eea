package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pkg/logging"
	"github.com/rushteam/cfrec/pkg/metrics"
)

// Fingerprint 是评分表内容的 FNV-64a 哈希（顺序敏感），作为索引缓存的 key。
// 内容相同的表得到相同的指纹，因此缓存不会过期失效。
func Fingerprint(table core.RatingTable) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, rec := range table {
		h.Write([]byte(rec.UserID))
		h.Write([]byte{0})
		h.Write([]byte(rec.ItemID))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(rec.Rating))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func indexKey(fingerprint string) string {
	return "index:" + fingerprint
}

// loadIndex 从 Store 读取索引；未命中或解码失败返回 nil。
func (r *Recommender) loadIndex(ctx context.Context, fingerprint string) *core.RatingIndex {
	if r.store == nil {
		return nil
	}
	data, err := r.store.Get(ctx, indexKey(fingerprint))
	if err != nil {
		if !core.IsStoreNotFound(err) {
			logging.Ctx(ctx).Warn().Err(err).Str("store", r.store.Name()).Msg("index cache read failed")
		}
		metrics.RecordIndexCache("store", false)
		return nil
	}
	var idx core.RatingIndex
	if err := json.Unmarshal(data, &idx); err != nil || idx.Users == nil || idx.Items == nil {
		logging.Ctx(ctx).Warn().Err(err).Str("fingerprint", fingerprint).Msg("discarding undecodable cached index")
		metrics.RecordIndexCache("store", false)
		return nil
	}
	metrics.RecordIndexCache("store", true)
	return &idx
}

// saveIndex 把索引写回 Store，失败只记录日志。
func (r *Recommender) saveIndex(ctx context.Context, fingerprint string, idx *core.RatingIndex) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(idx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("index encode failed")
		return
	}
	var ttl []int
	if r.indexTTL > 0 {
		ttl = append(ttl, int(r.indexTTL/time.Second))
	}
	if err := r.store.Set(ctx, indexKey(fingerprint), data, ttl...); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("store", r.store.Name()).Msg("index cache write failed")
	}
}

// buildIndex 依次尝试 Store 缓存与重新构建。
func (r *Recommender) buildIndex(ctx context.Context, fingerprint string, table core.RatingTable) *core.RatingIndex {
	if idx := r.loadIndex(ctx, fingerprint); idx != nil {
		return idx
	}
	start := time.Now()
	idx := cf.BuildIndex(table)
	metrics.ObserveIndexBuild(time.Since(start))
	logging.Ctx(ctx).Info().
		Str("fingerprint", fingerprint).
		Int("users", len(idx.Users)).
		Int("items", len(idx.Items)).
		Dur("elapsed", time.Since(start)).
		Msg("rating index built")
	r.saveIndex(ctx, fingerprint, idx)
	return idx
}

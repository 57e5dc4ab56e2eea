// Package api 是推荐服务的 HTTP 接口层：路由、参数校验、默认值补齐与错误映射。
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/service"
)

// Recommender 是接口层依赖的推荐操作，由 *service.Recommender 实现。
type Recommender interface {
	Location() string
	RecommendForUser(ctx context.Context, userID string, p core.RankParams) ([]*core.Item, error)
	SimilarItems(ctx context.Context, itemID string, p core.SimilarParams) ([]cf.Neighbor, error)
	PredictLike(ctx context.Context, userID, itemID string, p core.PredictParams) (cf.Prediction, error)
	DatasetInfo(ctx context.Context) (service.DatasetInfo, error)
	ListUsers(ctx context.Context) ([]string, error)
	CandidateItems(ctx context.Context, userID string) ([]string, error)
}

// Defaults 是请求缺省字段时使用的参数。
type Defaults struct {
	Recommend core.RankParams
	Similar   core.SimilarParams
	Predict   core.PredictParams
}

// Options 是路由的可选配置。
type Options struct {
	Version     string
	CORSOrigins []string
}

// Server 持有接口层依赖。
type Server struct {
	rec      Recommender
	defaults Defaults
	opts     Options
}

// NewServer 创建 Server。
func NewServer(rec Recommender, defaults Defaults, opts Options) *Server {
	return &Server{rec: rec, defaults: defaults, opts: opts}
}

// Router 返回挂好中间件与路由的 http.Handler。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(ensureRequestID)
	r.Use(middleware.RequestID)
	r.Use(bindRequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/dataset-path", s.handleDatasetPath)
		r.Get("/dataset", s.handleDataset)
		r.Post("/recomendar", s.handleRecommend)
		r.Post("/recommend", s.handleRecommend)
		r.Get("/similar/{item_id}", s.handleSimilar)
		r.Get("/users", s.handleUsers)
		r.Get("/users/{user_id}/candidates", s.handleCandidates)
		r.Post("/predict", s.handlePredict)
	})

	return r
}

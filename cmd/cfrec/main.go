// Command cfrec 启动协同过滤推荐 HTTP 服务。
//
//	CFREC_DATASET_PATH=data/Ratings.csv cfrec
//	cfrec -config cfrec.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/cfrec/api"
	"github.com/rushteam/cfrec/config"
	_ "github.com/rushteam/cfrec/config/builders"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/dataset"
	"github.com/rushteam/cfrec/pipeline"
	"github.com/rushteam/cfrec/pkg/logging"
	"github.com/rushteam/cfrec/service"
	"github.com/rushteam/cfrec/store"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认读取 CFREC_CONFIG 或 cfrec.yaml）")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error().Err(err).Msg("cfrec exited")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	src, err := newSource(cfg.Dataset, st)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithStore(st),
		service.WithWorkers(cfg.Engine.Workers),
		service.WithIndexTTL(cfg.Store.IndexTTL),
	}
	if cfg.Pipeline.Path != "" {
		p, err := loadPipeline(cfg.Pipeline.Path)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithPipeline(p))
	}
	rec, err := service.New(src, opts...)
	if err != nil {
		return err
	}

	srv := api.NewServer(rec, api.Defaults{
		Recommend: cfg.Defaults.Recommend.Params(),
		Similar:   cfg.Defaults.Similar.Params(),
		Predict:   cfg.Defaults.Predict.Params(),
	}, api.Options{Version: cfg.Server.Version, CORSOrigins: cfg.Server.CORSOrigins})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", cfg.Server.Addr).
			Str("version", cfg.Server.Version).
			Str("dataset", src.Location()).
			Str("store", st.Name()).
			Msg("cfrec listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore 按配置创建存储，并加上 key 前缀。
func openStore(ctx context.Context, cfg config.Store) (core.Store, error) {
	var st core.Store
	switch cfg.Backend {
	case "redis":
		rs, err := store.NewRedisStoreWithOptions(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		st = rs
	default:
		st = store.NewMemoryStoreWithCleanup(time.Minute)
	}
	return store.WithPrefix(st, cfg.KeyPrefix), nil
}

// newSource 按配置创建评分数据源；显式的分隔符与列名覆盖 preset。
func newSource(cfg config.Dataset, st core.Store) (core.RatingSource, error) {
	if cfg.Source == "store" {
		return dataset.NewStoreSource(st, cfg.StoreKey), nil
	}

	preset, err := dataset.LookupPreset(cfg.Preset)
	if err != nil {
		return nil, err
	}
	var delim rune
	if cfg.Delimiter != "" {
		delim = []rune(cfg.Delimiter)[0]
	}
	return dataset.NewCSVSource(cfg.Path, preset,
		dataset.WithDelimiter(delim),
		dataset.WithColumns(dataset.Columns{
			User:   cfg.Columns.User,
			Item:   cfg.Columns.Item,
			Rating: cfg.Columns.Rating,
		}),
		dataset.WithLazyQuotes(cfg.LazyQuotes),
		dataset.WithEncoding(cfg.Encoding),
	), nil
}

// loadPipeline 读取 YAML/JSON 节点链，校验节点类型后构建。
func loadPipeline(path string) (*pipeline.Pipeline, error) {
	pc, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	if err := config.ValidatePipelineConfig(pc); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", path, err)
	}
	p, err := pc.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, fmt.Errorf("build pipeline %s: %w", path, err)
	}
	logging.Info().Str("path", path).Int("nodes", len(p.Nodes)).Msg("pipeline loaded")
	return p, nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/cfrec/core"
)

// ConfigPathEnvVar 指定配置文件路径的环境变量。
const ConfigPathEnvVar = "CFREC_CONFIG"

// EnvPrefix 是所有配置环境变量的前缀，例如 CFREC_SERVER_ADDR → server.addr。
const EnvPrefix = "CFREC_"

// DefaultConfigPaths 未指定 CFREC_CONFIG 时按顺序查找的配置文件。
var DefaultConfigPaths = []string{
	"cfrec.yaml",
	"cfrec.yml",
	"/etc/cfrec/cfrec.yaml",
}

// App 是服务的完整配置。
type App struct {
	Server   Server   `koanf:"server"`
	Dataset  Dataset  `koanf:"dataset"`
	Store    Store    `koanf:"store"`
	Engine   Engine   `koanf:"engine"`
	Defaults Defaults `koanf:"defaults"`
	Pipeline Pipeline `koanf:"pipeline"`
	Logging  Logging  `koanf:"logging"`
}

type Server struct {
	Addr            string        `koanf:"addr" validate:"required"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
	Version         string        `koanf:"version"`
}

// Columns 是源文件表头到 user/item/rating 的映射；为空的字段取 preset 的值。
type Columns struct {
	User   string `koanf:"user"`
	Item   string `koanf:"item"`
	Rating string `koanf:"rating"`
}

type Dataset struct {
	Source     string  `koanf:"source" validate:"oneof=csv store"`
	Preset     string  `koanf:"preset" validate:"omitempty,oneof=book-crossing games"`
	Path       string  `koanf:"path" validate:"required_if=Source csv"`
	Delimiter  string  `koanf:"delimiter"`
	Columns    Columns `koanf:"columns"`
	LazyQuotes bool    `koanf:"lazy_quotes"`
	Encoding   string  `koanf:"encoding" validate:"omitempty,oneof=utf-8 utf8 latin1 latin-1 iso-8859-1 windows-1252 cp1252"` // 空为 UTF-8
	StoreKey   string  `koanf:"store_key" validate:"required_if=Source store"`
}

type Store struct {
	Backend       string        `koanf:"backend" validate:"oneof=memory redis"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"gte=0"`
	IndexTTL      time.Duration `koanf:"index_ttl" validate:"gte=0"`
	KeyPrefix     string        `koanf:"key_prefix"`
}

type Engine struct {
	// Workers 是物品加权打分的并发度，<= 1 时顺序执行
	Workers int `koanf:"workers" validate:"gte=0"`
}

type RecommendDefaults struct {
	KNeighbors    int     `koanf:"k_neighbors" validate:"min=1,max=100"`
	TopN          int     `koanf:"top_n" validate:"min=1,max=50"`
	LikeThreshold float64 `koanf:"like_threshold" validate:"gte=0,lte=10"`
	MinOverlap    int     `koanf:"min_overlap" validate:"gte=0"`
}

func (d RecommendDefaults) Params() core.RankParams {
	return core.RankParams{
		KNeighbors:    d.KNeighbors,
		TopN:          d.TopN,
		LikeThreshold: d.LikeThreshold,
		MinOverlap:    d.MinOverlap,
	}
}

type SimilarDefaults struct {
	TopN       int `koanf:"top_n" validate:"min=1,max=50"`
	MinOverlap int `koanf:"min_overlap" validate:"gte=0"`
}

func (d SimilarDefaults) Params() core.SimilarParams {
	return core.SimilarParams{TopN: d.TopN, MinOverlap: d.MinOverlap}
}

type PredictDefaults struct {
	K             int     `koanf:"k" validate:"min=1,max=100"`
	LikeThreshold float64 `koanf:"like_threshold" validate:"gte=0,lte=10"`
	TieBreak      string  `koanf:"tie_break" validate:"oneof=favor-like favor-dislike"`
	MinOverlap    int     `koanf:"min_overlap" validate:"gte=0"`
}

func (d PredictDefaults) Params() core.PredictParams {
	return core.PredictParams{
		K:             d.K,
		LikeThreshold: d.LikeThreshold,
		TieBreak:      core.TieBreak(d.TieBreak),
		MinOverlap:    d.MinOverlap,
	}
}

// Defaults 是接口层在请求缺省字段时使用的参数，引擎本身没有默认值。
type Defaults struct {
	Recommend RecommendDefaults `koanf:"recommend"`
	Similar   SimilarDefaults   `koanf:"similar"`
	Predict   PredictDefaults   `koanf:"predict"`
}

type Pipeline struct {
	// Path 指向 YAML/JSON 节点链配置；为空时使用内置的 item_cf → topn
	Path string `koanf:"path"`
}

type Logging struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default 返回内置默认配置；文件与环境变量在其之上覆盖。
func Default() *App {
	return &App{
		Server: Server{
			Addr:            ":8000",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Version:         "0.1.0",
		},
		Dataset: Dataset{
			Source:   "csv",
			Preset:   "book-crossing",
			Path:     "data/Ratings.csv",
			StoreKey: "dataset:ratings",
		},
		Store: Store{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			IndexTTL:  time.Hour,
			KeyPrefix: "cfrec",
		},
		Engine: Engine{Workers: 4},
		Defaults: Defaults{
			Recommend: RecommendDefaults{KNeighbors: 20, TopN: 5, LikeThreshold: 7.0, MinOverlap: 3},
			Similar:   SimilarDefaults{TopN: 5, MinOverlap: 3},
			Predict:   PredictDefaults{K: 5, LikeThreshold: 7.0, TieBreak: string(core.TieBreakFavorLike), MinOverlap: 0},
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load 按 默认值 → 配置文件 → 环境变量 的顺序加载配置并校验。
// path 为空时依次尝试 CFREC_CONFIG 与 DefaultConfigPaths，找不到文件不算错误。
func Load(path string) (*App, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &App{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envSections 按最长前缀优先排列，嵌套段需要排在其父段之前。
var envSections = []string{
	"defaults_recommend_",
	"defaults_similar_",
	"defaults_predict_",
	"dataset_columns_",
	"server_",
	"dataset_",
	"store_",
	"engine_",
	"pipeline_",
	"logging_",
}

// envTransformFunc 把环境变量名转换为 koanf 路径：
//   - CFREC_SERVER_ADDR → server.addr
//   - CFREC_DATASET_STORE_KEY → dataset.store_key
//   - CFREC_DEFAULTS_RECOMMEND_TOP_N → defaults.recommend.top_n
//
// 不属于任何配置段的变量（例如 CFREC_CONFIG）返回空串被忽略。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range envSections {
		if field, ok := strings.CutPrefix(key, section); ok && field != "" {
			return strings.ReplaceAll(strings.TrimSuffix(section, "_"), "_", ".") + "." + field
		}
	}
	return ""
}

// sliceConfigPaths 在环境变量中以逗号分隔的配置项
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验枚举与取值范围。
func (c *App) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Dataset.Delimiter != "" && utf8.RuneCountInString(c.Dataset.Delimiter) != 1 {
		return fmt.Errorf("dataset.delimiter must be a single character, got %q", c.Dataset.Delimiter)
	}
	return nil
}

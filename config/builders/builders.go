// Package builders 在 init 中把内置 Node 注册到 config 注册表。
package builders

import (
	"fmt"

	"github.com/rushteam/cfrec/config"
	"github.com/rushteam/cfrec/filter"
	"github.com/rushteam/cfrec/pipeline"
	"github.com/rushteam/cfrec/pkg/conv"
	"github.com/rushteam/cfrec/recall"
	"github.com/rushteam/cfrec/rerank"
)

func init() {
	config.Register("recall.item_cf", BuildItemCFNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildItemCFNode 配置项：workers（打分并发度）。
func BuildItemCFNode(cfg map[string]any) (pipeline.Node, error) {
	workers := conv.ConfigGetInt64(cfg, "workers", 0)
	if workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", workers)
	}
	return &recall.ItemCF{Workers: int(workers)}, nil
}

// BuildTopNNode 配置项：n（<= 0 时使用请求的 top_n）。
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

// BuildFilterNode 配置项：filters 列表，每项含 type 与该类型的参数。
//
//	filters:
//	  - type: blacklist
//	    item_ids: ["0439023483"]
//	    key: blacklist:books
//	  - type: user_block
//	    key_prefix: user:block
//	  - type: expr
//	    expr: item.score < 6.0
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for i, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filters[%d] must be a map", i)
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, key))
		case "user_block":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewUserBlockFilter(nil, keyPrefix))
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("filters[%d]: expr is required", i)
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("filters[%d]: %w", i, err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

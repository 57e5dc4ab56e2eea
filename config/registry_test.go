package config

import (
	"context"
	"strings"
	"testing"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
)

type noopNode struct{}

func (noopNode) Name() string        { return "test.noop" }
func (noopNode) Kind() pipeline.Kind { return pipeline.KindReRank }
func (noopNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func TestRegistry(t *testing.T) {
	Register("test.noop", func(map[string]any) (pipeline.Node, error) { return noopNode{}, nil })
	Register("", nil) // 忽略

	found := false
	for _, typ := range SupportedTypes() {
		if typ == "test.noop" {
			found = true
		}
	}
	if !found {
		t.Fatal("test.noop 应已注册")
	}
	if !DefaultFactory().Has("test.noop") {
		t.Error("DefaultFactory 应包含已注册类型")
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop"}}
	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Errorf("ValidatePipelineConfig() = %v", err)
	}
	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "rank.lr"})
	err := ValidatePipelineConfig(cfg)
	if err == nil || !strings.Contains(err.Error(), "rank.lr") {
		t.Errorf("ValidatePipelineConfig() = %v, want unsupported rank.lr", err)
	}
}

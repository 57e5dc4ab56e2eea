package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/cfrec/core"
)

func TestTopNNode(t *testing.T) {
	items := func() []*core.Item {
		return []*core.Item{core.NewItem("a"), core.NewItem("b"), core.NewItem("c")}
	}
	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		want int
	}{
		{"显式 N", 2, nil, 2},
		{"使用请求 top_n", 0, &core.RecommendContext{Rank: core.RankParams{TopN: 1}}, 1},
		{"N 优先于请求", 2, &core.RecommendContext{Rank: core.RankParams{TopN: 1}}, 2},
		{"都不设置不截断", 0, &core.RecommendContext{}, 3},
		{"N 大于长度", 10, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), tt.rctx, items())
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
			if len(out) > 0 && out[0].ID != "a" {
				t.Errorf("截断应保持顺序，got %s", out[0].ID)
			}
		})
	}
}

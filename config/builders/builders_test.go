package builders

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/config"
	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/pipeline"
)

const pipelineYAML = `
pipeline:
  name: books
  nodes:
    - type: recall.item_cf
      config:
        workers: 2
    - type: filter
      config:
        filters:
          - type: blacklist
            item_ids: ["D"]
          - type: expr
            expr: item.score < 4.5
    - type: rerank.topn
      config:
        n: 0
`

func testIndex() *core.RatingIndex {
	return cf.BuildIndex(core.RatingTable{
		{UserID: "u1", ItemID: "A", Rating: 5},
		{UserID: "u1", ItemID: "B", Rating: 4},
		{UserID: "u2", ItemID: "A", Rating: 5},
		{UserID: "u2", ItemID: "B", Rating: 4},
		{UserID: "u2", ItemID: "C", Rating: 5},
		{UserID: "u2", ItemID: "D", Rating: 5},
		{UserID: "u2", ItemID: "E", Rating: 1},
		{UserID: "u3", ItemID: "A", Rating: 4},
		{UserID: "u3", ItemID: "C", Rating: 4},
		{UserID: "u3", ItemID: "D", Rating: 4},
		{UserID: "u3", ItemID: "E", Rating: 1},
	})
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(pipelineYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatal(err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(p.Nodes))
	}

	idx := testIndex()
	rank := core.RankParams{KNeighbors: 5, TopN: 5, LikeThreshold: 4, MinOverlap: 1}
	rctx := &core.RecommendContext{UserID: "u1", Index: idx, Rank: rank}

	out, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	// 与直接调用 RankForUser 相比：D 被黑名单移除，低于 4.5 分的被表达式移除
	direct, err := cf.RankForUser(context.Background(), idx, "u1", rank)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]string, 0, len(direct))
	for _, it := range direct {
		if it.ID != "D" && it.Score >= 4.5 {
			want = append(want, it.ID)
		}
	}
	got := make([]string, 0, len(out))
	for _, it := range out {
		got = append(got, it.ID)
		if lbl, ok := it.GetLabel("recall_source"); !ok || lbl.Value != "item_cf" {
			t.Errorf("%s 缺少 recall_source label", it.ID)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pipeline = %v, want %v", got, want)
	}
	if len(direct) != 3 {
		t.Errorf("RankForUser 应返回 C D E 三个候选, got %d", len(direct))
	}
}

func TestTopNUsesRequestTopN(t *testing.T) {
	node, err := BuildTopNNode(map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	items := []*core.Item{core.NewItem("a"), core.NewItem("b"), core.NewItem("c")}
	out, err := node.Process(context.Background(), &core.RecommendContext{Rank: core.RankParams{TopN: 2}}, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}

	node, _ = BuildTopNNode(map[string]any{"n": 1})
	out, _ = node.Process(context.Background(), &core.RecommendContext{Rank: core.RankParams{TopN: 2}}, items)
	if len(out) != 1 {
		t.Errorf("显式 n 应优先: len = %d", len(out))
	}
}

func TestBuildFilterNode_Errors(t *testing.T) {
	tests := []map[string]any{
		{},
		{"filters": []any{map[string]any{"type": "exposed"}}},
		{"filters": []any{map[string]any{"type": "expr"}}},
		{"filters": []any{map[string]any{"type": "expr", "expr": "item.score >"}}},
		{"filters": []any{"blacklist"}},
	}
	for i, cfg := range tests {
		if _, err := BuildFilterNode(cfg); err == nil {
			t.Errorf("case %d: 期望构建失败", i)
		}
	}
}

func TestBuildItemCFNode_Negative(t *testing.T) {
	if _, err := BuildItemCFNode(map[string]any{"workers": -1}); err == nil {
		t.Error("workers < 0 应报错")
	}
}

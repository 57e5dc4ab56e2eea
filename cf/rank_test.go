package cf

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/rushteam/cfrec/core"
)

// rankTable: 目标用户 u1 只缺物品 C
//
//	u1: A=5 B=3
//	u2: A=4 B=2 C=5
//	u3: A=1 B=5 C=2
func rankTable() core.RatingTable {
	return core.RatingTable{
		{UserID: "u1", ItemID: "A", Rating: 5}, {UserID: "u1", ItemID: "B", Rating: 3},
		{UserID: "u2", ItemID: "A", Rating: 4}, {UserID: "u2", ItemID: "B", Rating: 2}, {UserID: "u2", ItemID: "C", Rating: 5},
		{UserID: "u3", ItemID: "A", Rating: 1}, {UserID: "u3", ItemID: "B", Rating: 5}, {UserID: "u3", ItemID: "C", Rating: 2},
	}
}

func TestRankForUser_WeightedScore(t *testing.T) {
	idx := BuildIndex(rankTable())
	ctx := context.Background()

	sCA := Similarity("C", "A", idx.Items, 2).Similarity
	sCB := Similarity("C", "B", idx.Items, 2).Similarity
	if sCA <= 0 || sCB <= 0 {
		t.Fatalf("fixture expects positive similarities, got %v %v", sCA, sCB)
	}

	tests := []struct {
		name       string
		k          int
		wantScore  float64
		wantLikes  string
		wantNeighs string
	}{
		{
			name:       "two neighbors",
			k:          2,
			wantScore:  Round4((sCA*5 + sCB*3) / (sCA + sCB)),
			wantLikes:  "1/2",
			wantNeighs: "2",
		},
		{
			name:       "single best neighbor",
			k:          1,
			wantScore:  5,
			wantLikes:  "1/1",
			wantNeighs: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := RankForUser(ctx, idx, "u1", core.RankParams{
				KNeighbors:    tt.k,
				TopN:          5,
				LikeThreshold: 4,
				MinOverlap:    2,
			})
			if err != nil {
				t.Fatalf("RankForUser: %v", err)
			}
			if len(items) != 1 || items[0].ID != "C" {
				t.Fatalf("items = %v, want [C]", itemIDs(items))
			}
			it := items[0]
			if !it.HasScore || it.Score != tt.wantScore {
				t.Errorf("score = %v (has=%v), want %v", it.Score, it.HasScore, tt.wantScore)
			}
			if lbl, _ := it.GetLabel(core.LabelLikes); lbl.Value != tt.wantLikes {
				t.Errorf("likes label = %q, want %q", lbl.Value, tt.wantLikes)
			}
			if lbl, _ := it.GetLabel(core.LabelNeighbors); lbl.Value != tt.wantNeighs {
				t.Errorf("neighbors label = %q, want %q", lbl.Value, tt.wantNeighs)
			}
			if lbl, _ := it.GetLabel(core.LabelMinOverlap); lbl.Value != "2" {
				t.Errorf("min_overlap label = %q, want 2", lbl.Value)
			}
		})
	}
}

func TestRankForUser_EmptyResults(t *testing.T) {
	idx := BuildIndex(rankTable())
	ctx := context.Background()
	params := core.RankParams{KNeighbors: 5, TopN: 5, LikeThreshold: 4, MinOverlap: 2}

	t.Run("cold start user", func(t *testing.T) {
		items, err := RankForUser(ctx, idx, "nobody", params)
		if err != nil {
			t.Fatalf("RankForUser: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %v, want empty", itemIDs(items))
		}
	})

	t.Run("min overlap gate removes every neighbor", func(t *testing.T) {
		p := params
		p.MinOverlap = 3
		items, err := RankForUser(ctx, idx, "u1", p)
		if err != nil {
			t.Fatalf("RankForUser: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %v, want empty", itemIDs(items))
		}
	})

	t.Run("user rated everything", func(t *testing.T) {
		items, err := RankForUser(ctx, idx, "u2", params)
		if err != nil {
			t.Fatalf("RankForUser: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("items = %v, want empty", itemIDs(items))
		}
	})
}

// randomTable 生成固定种子的稀疏评分表。
func randomTable(seed uint64, users, items int, density float64) core.RatingTable {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	table := make(core.RatingTable, 0)
	for u := 0; u < users; u++ {
		for i := 0; i < items; i++ {
			if r.Float64() < density {
				table = append(table, core.RatingRecord{
					UserID: fmt.Sprintf("u%02d", u),
					ItemID: fmt.Sprintf("i%02d", i),
					Rating: float64(1 + r.IntN(10)),
				})
			}
		}
	}
	return table
}

func TestRankForUser_Properties(t *testing.T) {
	idx := BuildIndex(randomTable(42, 30, 25, 0.3))
	ctx := context.Background()
	params := core.RankParams{KNeighbors: 4, TopN: 8, LikeThreshold: 7, MinOverlap: 2}

	for userID, rated := range idx.Users {
		seq, err := RankForUser(ctx, idx, userID, params)
		if err != nil {
			t.Fatalf("RankForUser(%s): %v", userID, err)
		}
		par, err := RankForUser(ctx, idx, userID, params, WithWorkers(4))
		if err != nil {
			t.Fatalf("RankForUser(%s, workers): %v", userID, err)
		}
		if !reflect.DeepEqual(itemIDs(seq), itemIDs(par)) {
			t.Errorf("user %s: sequential %v != parallel %v", userID, itemIDs(seq), itemIDs(par))
		}
		if len(seq) > params.TopN {
			t.Errorf("user %s: %d items > top_n %d", userID, len(seq), params.TopN)
		}
		for i, it := range seq {
			if _, ok := rated[it.ID]; ok {
				t.Errorf("user %s: recommended already rated item %s", userID, it.ID)
			}
			if i > 0 && seq[i-1].Score < it.Score {
				t.Errorf("user %s: scores not descending at %d", userID, i)
			}
			if it.Score == 0 {
				t.Errorf("user %s: item %s scored 0 with positive neighbors", userID, it.ID)
			}
		}
	}
}

func TestRankForUser_TieOrderFollowsItemID(t *testing.T) {
	// 候选 X、Y 与 A 的关系完全相同，分数相同，按 ID 顺序输出
	idx := BuildIndex(core.RatingTable{
		{UserID: "t", ItemID: "A", Rating: 4},
		{UserID: "o", ItemID: "A", Rating: 4}, {UserID: "o", ItemID: "Y", Rating: 3}, {UserID: "o", ItemID: "X", Rating: 3},
	})
	items, err := RankForUser(context.Background(), idx, "t", core.RankParams{KNeighbors: 3, TopN: 5, LikeThreshold: 3, MinOverlap: 1})
	if err != nil {
		t.Fatalf("RankForUser: %v", err)
	}
	if got := itemIDs(items); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Errorf("items = %v, want [X Y]", got)
	}
}

func TestRankForUser_ContextCanceled(t *testing.T) {
	idx := BuildIndex(rankTable())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		_, err := RankForUser(ctx, idx, "u1", core.RankParams{KNeighbors: 3, TopN: 3, MinOverlap: 1}, WithWorkers(workers))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: err = %v, want context.Canceled", workers, err)
		}
	}
}

func TestSimilarItems(t *testing.T) {
	idx := BuildIndex(exampleTable())

	got := SimilarItems(idx, "A", core.SimilarParams{TopN: 5, MinOverlap: 2})
	if len(got) != 2 || got[0].ID != "B" || got[1].ID != "C" {
		t.Fatalf("SimilarItems(A) = %+v, want [B C]", got)
	}
	if got[0].Overlap != 3 {
		t.Errorf("overlap = %d, want 3", got[0].Overlap)
	}

	if got := SimilarItems(idx, "A", core.SimilarParams{TopN: 1, MinOverlap: 2}); len(got) != 1 {
		t.Errorf("TopN=1 returned %d items", len(got))
	}
	if got := SimilarItems(idx, "A", core.SimilarParams{TopN: 5, MinOverlap: 4}); len(got) != 0 {
		t.Errorf("min overlap 4 should suppress everything, got %+v", got)
	}
	if got := SimilarItems(idx, "unknown", core.SimilarParams{TopN: 5, MinOverlap: 0}); len(got) != 0 {
		t.Errorf("unknown item returned %+v", got)
	}
}

func TestRound4(t *testing.T) {
	tests := map[float64]float64{
		4.123449: 4.1234,
		4.12346:  4.1235,
		-1.00004: -1,
		0:        0,
	}
	for in, want := range tests {
		if got := Round4(in); got != want {
			t.Errorf("Round4(%v) = %v, want %v", in, got, want)
		}
	}
}

func itemIDs(items []*core.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/core"
	"github.com/rushteam/cfrec/service"
)

type tableSource struct {
	table core.RatingTable
	err   error
}

func (s *tableSource) Name() string     { return "table" }
func (s *tableSource) Location() string { return "data/Ratings.csv" }
func (s *tableSource) Load(context.Context) (core.RatingTable, error) {
	return s.table, s.err
}

var testDefaults = Defaults{
	Recommend: core.RankParams{KNeighbors: 20, TopN: 5, LikeThreshold: 4, MinOverlap: 2},
	Similar:   core.SimilarParams{TopN: 5, MinOverlap: 1},
	Predict:   core.PredictParams{K: 3, LikeThreshold: 4, TieBreak: core.TieBreakFavorLike},
}

func ratings() core.RatingTable {
	return core.RatingTable{
		{UserID: "u1", ItemID: "A", Rating: 5},
		{UserID: "u1", ItemID: "B", Rating: 3},
		{UserID: "u2", ItemID: "A", Rating: 4},
		{UserID: "u2", ItemID: "B", Rating: 2},
		{UserID: "u2", ItemID: "C", Rating: 5},
		{UserID: "u3", ItemID: "A", Rating: 1},
		{UserID: "u3", ItemID: "B", Rating: 5},
		{UserID: "u3", ItemID: "C", Rating: 2},
	}
}

func newTestServer(t *testing.T, src core.RatingSource) *httptest.Server {
	t.Helper()
	rec, err := service.New(src)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewServer(rec, testDefaults, Options{Version: "test"}).Router())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any, http.Header) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, out, resp.Header
}

func TestHealthAndDatasetPath(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})

	status, body, hdr := do(t, ts, http.MethodGet, "/health", "")
	if status != http.StatusOK || body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health = %d %v", status, body)
	}
	if hdr.Get("X-Request-ID") == "" {
		t.Error("响应应带 X-Request-ID")
	}

	status, body, _ = do(t, ts, http.MethodGet, "/v1/dataset-path", "")
	if status != http.StatusOK || body["path"] != "data/Ratings.csv" {
		t.Errorf("dataset-path = %d %v", status, body)
	}

	status, body, _ = do(t, ts, http.MethodGet, "/v1/dataset", "")
	if status != http.StatusOK || body["users"] != float64(3) || body["items"] != float64(3) {
		t.Errorf("dataset = %d %v", status, body)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestRecommend(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})

	for _, path := range []string{"/v1/recomendar", "/v1/recommend"} {
		status, body, _ := do(t, ts, http.MethodPost, path, `{"user_id":"u1"}`)
		if status != http.StatusOK {
			t.Fatalf("%s status = %d %v", path, status, body)
		}
		recs, ok := body["recommendations"].([]any)
		if !ok || len(recs) != 1 {
			t.Fatalf("%s recommendations = %v", path, body["recommendations"])
		}
		first := recs[0].(map[string]any)
		if first["book"] != "C" {
			t.Errorf("book = %v, want C", first["book"])
		}
		if _, ok := first["reason"].(string); !ok {
			t.Errorf("reason 缺失: %v", first)
		}
	}

	// 未知用户返回空列表而不是错误
	status, body, _ := do(t, ts, http.MethodPost, "/v1/recommend", `{"user_id":"ghost"}`)
	if status != http.StatusOK {
		t.Fatalf("unknown user status = %d", status)
	}
	if recs := body["recommendations"].([]any); len(recs) != 0 {
		t.Errorf("unknown user recommendations = %v", recs)
	}
}

func TestRecommendValidation(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})
	tests := []struct {
		name string
		body string
	}{
		{"空请求体", ""},
		{"非法 JSON", `{"user_id":`},
		{"缺少 user_id", `{"top_n":3}`},
		{"k_neighbors 过大", `{"user_id":"u1","k_neighbors":101}`},
		{"k_neighbors 为 0", `{"user_id":"u1","k_neighbors":0}`},
		{"top_n 过大", `{"user_id":"u1","top_n":51}`},
		{"like_threshold 越界", `{"user_id":"u1","like_threshold":11}`},
		{"min_overlap 为负", `{"user_id":"u1","min_overlap":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := do(t, ts, http.MethodPost, "/v1/recommend", tt.body)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", status)
			}
			e := body["error"].(map[string]any)
			if e["code"] != CodeValidation {
				t.Errorf("code = %v", e["code"])
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})

	status, body, _ := do(t, ts, http.MethodGet, "/v1/similar/A?top_n=1", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d %v", status, body)
	}
	if body["book"] != "A" {
		t.Errorf("book = %v", body["book"])
	}
	if sims := body["similar"].([]any); len(sims) > 1 {
		t.Errorf("top_n=1 返回 %d 个", len(sims))
	}

	status, body, _ = do(t, ts, http.MethodGet, "/v1/similar/missing", "")
	if status != http.StatusOK || len(body["similar"].([]any)) != 0 {
		t.Errorf("unknown item = %d %v", status, body)
	}

	for _, q := range []string{"?top_n=abc", "?top_n=0", "?min_overlap=-2"} {
		if status, _, _ := do(t, ts, http.MethodGet, "/v1/similar/A"+q, ""); status != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, status)
		}
	}
}

func TestUsersAndCandidates(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})

	status, body, _ := do(t, ts, http.MethodGet, "/v1/users", "")
	if status != http.StatusOK || len(body["users"].([]any)) != 3 {
		t.Errorf("users = %d %v", status, body)
	}

	status, body, _ = do(t, ts, http.MethodGet, "/v1/users/u1/candidates", "")
	if status != http.StatusOK || body["user_id"] != "u1" {
		t.Fatalf("candidates = %d %v", status, body)
	}
	items := body["items"].([]any)
	if len(items) != 1 || items[0] != "C" {
		t.Errorf("items = %v, want [C]", items)
	}
}

func TestPredict(t *testing.T) {
	ts := newTestServer(t, &tableSource{table: ratings()})

	status, body, _ := do(t, ts, http.MethodPost, "/v1/predict", `{"user_id":"u1","item_id":"C","k":1}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d %v", status, body)
	}
	if _, ok := body["prediction"].(float64); !ok {
		t.Errorf("prediction = %v, want 0 or 1", body["prediction"])
	}
	if n := body["neighbors"].([]any); len(n) != 1 {
		t.Errorf("neighbors = %v", n)
	}

	// 无人评过的物品：prediction 为 null
	status, body, _ = do(t, ts, http.MethodPost, "/v1/predict", `{"user_id":"u1","item_id":"Z"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if v, present := body["prediction"]; !present || v != nil {
		t.Errorf("prediction = %v, want null", v)
	}

	for _, bad := range []string{
		`{"item_id":"C"}`,
		`{"user_id":"u1"}`,
		`{"user_id":"u1","item_id":"C","k":0}`,
		`{"user_id":"u1","item_id":"C","tie_break":"coin"}`,
	} {
		if status, _, _ := do(t, ts, http.MethodPost, "/v1/predict", bad); status != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", bad, status)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"数据源不存在", core.WrapDomainError(core.ModuleDataset, core.ErrorCodeNotFound, "missing", nil), http.StatusNotFound, CodeDataUnavailable},
		{"缺少字段", core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidSchema, "no rating", nil), http.StatusUnprocessableEntity, CodeSchemaInvalid},
		{"其他错误", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &tableSource{err: tt.err})
			status, body, _ := do(t, ts, http.MethodPost, "/v1/recommend", `{"user_id":"u1"}`)
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			e := body["error"].(map[string]any)
			if e["code"] != tt.code {
				t.Errorf("code = %v, want %s", e["code"], tt.code)
			}
			if tt.status == http.StatusInternalServerError && strings.Contains(e["message"].(string), "disk") {
				t.Error("500 不应暴露内部错误信息")
			}
		})
	}
}

func TestParamsApplyDefaults(t *testing.T) {
	top := 2
	got := recommendRequest{UserID: "u", TopN: &top}.params(testDefaults.Recommend)
	want := testDefaults.Recommend
	want.TopN = 2
	if got != want {
		t.Errorf("params = %+v, want %+v", got, want)
	}

	tb := "favor-dislike"
	pp := predictRequest{TieBreak: &tb}.params(testDefaults.Predict)
	if pp.TieBreak != core.TieBreakFavorDislike || pp.K != testDefaults.Predict.K {
		t.Errorf("predict params = %+v", pp)
	}
}

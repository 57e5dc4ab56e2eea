package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rushteam/cfrec/cf"
	"github.com/rushteam/cfrec/core"
)

type scoredItem struct {
	Book   string  `json:"book"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

type recommendResponse struct {
	UserID          string       `json:"user_id"`
	Recommendations []scoredItem `json:"recommendations"`
}

type similarResponse struct {
	Book    string       `json:"book"`
	Similar []scoredItem `json:"similar"`
}

type voter struct {
	User       string  `json:"user"`
	Similarity float64 `json:"similarity"`
	Rating     float64 `json:"rating"`
}

type predictResponse struct {
	UserID     string  `json:"user_id"`
	ItemID     string  `json:"item_id"`
	Prediction *int    `json:"prediction"`
	Likes      int     `json:"likes"`
	Dislikes   int     `json:"dislikes"`
	Neighbors  []voter `json:"neighbors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "version": s.opts.Version})
}

func (s *Server) handleDatasetPath(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"path": s.rec.Location()})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	info, err := s.rec.DatasetInfo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.rec.RecommendForUser(r.Context(), req.UserID, req.params(s.defaults.Recommend))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]scoredItem, 0, len(items))
	for _, it := range items {
		reason, _ := it.Explain()
		out = append(out, scoredItem{Book: it.ID, Score: cf.Round4(it.SortScore()), Reason: reason})
	}
	writeJSON(w, r, http.StatusOK, recommendResponse{UserID: req.UserID, Recommendations: out})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	var req similarRequest
	var err error
	if req.TopN, err = queryInt(r, "top_n"); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MinOverlap, err = queryInt(r, "min_overlap"); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	neighbors, err := s.rec.SimilarItems(r.Context(), itemID, req.params(s.defaults.Similar))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]scoredItem, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, scoredItem{
			Book:   n.ID,
			Score:  cf.Round4(n.Similarity),
			Reason: "overlap=" + strconv.Itoa(n.Overlap),
		})
	}
	writeJSON(w, r, http.StatusOK, similarResponse{Book: itemID, Similar: out})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.rec.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string][]string{"users": users})
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	items, err := s.rec.CandidateItems(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"user_id": userID, "items": items})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := req.params(s.defaults.Predict)
	if _, err := core.ParseTieBreak(string(p.TieBreak)); err != nil {
		writeError(w, r, fmt.Errorf("tie_break: %w", err))
		return
	}

	pred, err := s.rec.PredictLike(r.Context(), req.UserID, req.ItemID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := predictResponse{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		Likes:     pred.Likes,
		Dislikes:  pred.Dislikes,
		Neighbors: make([]voter, 0, len(pred.Neighbors)),
	}
	if v, ok := pred.Value(); ok {
		resp.Prediction = &v
	}
	for _, n := range pred.Neighbors {
		resp.Neighbors = append(resp.Neighbors, voter{User: n.ID, Similarity: cf.Round4(n.Similarity), Rating: n.Rating})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

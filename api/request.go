package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/cfrec/core"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息使用 JSON 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// 请求字段使用指针，nil 表示缺省，由 Defaults 补齐。
type recommendRequest struct {
	UserID        string   `json:"user_id" validate:"required"`
	KNeighbors    *int     `json:"k_neighbors" validate:"omitempty,min=1,max=100"`
	TopN          *int     `json:"top_n" validate:"omitempty,min=1,max=50"`
	LikeThreshold *float64 `json:"like_threshold" validate:"omitempty,min=0,max=10"`
	MinOverlap    *int     `json:"min_overlap" validate:"omitempty,min=0"`
}

func (req recommendRequest) params(d core.RankParams) core.RankParams {
	p := d
	if req.KNeighbors != nil {
		p.KNeighbors = *req.KNeighbors
	}
	if req.TopN != nil {
		p.TopN = *req.TopN
	}
	if req.LikeThreshold != nil {
		p.LikeThreshold = *req.LikeThreshold
	}
	if req.MinOverlap != nil {
		p.MinOverlap = *req.MinOverlap
	}
	return p
}

type similarRequest struct {
	TopN       *int `json:"top_n" validate:"omitempty,min=1,max=50"`
	MinOverlap *int `json:"min_overlap" validate:"omitempty,min=0"`
}

func (req similarRequest) params(d core.SimilarParams) core.SimilarParams {
	p := d
	if req.TopN != nil {
		p.TopN = *req.TopN
	}
	if req.MinOverlap != nil {
		p.MinOverlap = *req.MinOverlap
	}
	return p
}

type predictRequest struct {
	UserID        string   `json:"user_id" validate:"required"`
	ItemID        string   `json:"item_id" validate:"required"`
	K             *int     `json:"k" validate:"omitempty,min=1,max=100"`
	LikeThreshold *float64 `json:"like_threshold" validate:"omitempty,min=0,max=10"`
	TieBreak      *string  `json:"tie_break" validate:"omitempty,oneof=favor-like favor-dislike"`
	MinOverlap    *int     `json:"min_overlap" validate:"omitempty,min=0"`
}

func (req predictRequest) params(d core.PredictParams) core.PredictParams {
	p := d
	if req.K != nil {
		p.K = *req.K
	}
	if req.LikeThreshold != nil {
		p.LikeThreshold = *req.LikeThreshold
	}
	if req.TieBreak != nil {
		p.TieBreak = core.TieBreak(*req.TieBreak)
	}
	if req.MinOverlap != nil {
		p.MinOverlap = *req.MinOverlap
	}
	return p
}

// requestError 是请求体或参数不合法，统一映射为 400。
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

// decodeJSON 解析请求体并校验。
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &requestError{msg: "read body: " + err.Error()}
	}
	if len(body) == 0 {
		return &requestError{msg: "request body is required"}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &requestError{msg: "invalid JSON: " + err.Error()}
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{msg: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &requestError{msg: strings.Join(msgs, "; ")}
}

// queryInt 读取可选的整数查询参数，缺省返回 nil。
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &requestError{msg: fmt.Sprintf("%s: not an integer", name)}
	}
	return &v, nil
}

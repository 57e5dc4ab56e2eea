package conv

import (
	"reflect"
	"testing"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"n":         5,
		"n_float":   7.0,
		"threshold": 7,
		"expr":      "item.score > 1",
		"ids":       []any{"0439023483", 3.0, true},
	}

	if got := ConfigGetInt64(cfg, "n", 0); got != 5 {
		t.Errorf("ConfigGetInt64(n) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "n_float", 0); got != 7 {
		t.Errorf("ConfigGetInt64(n_float) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "missing", 9); got != 9 {
		t.Errorf("ConfigGetInt64(missing) = %d", got)
	}
	if got := ConfigGet(cfg, "expr", ""); got != "item.score > 1" {
		t.Errorf("ConfigGet(expr) = %q", got)
	}
	if got := ConfigGet(cfg, "n", ""); got != "" {
		t.Errorf("ConfigGet with wrong type = %q, want default", got)
	}

	// bool 元素会被 ToFloat64 视为 1
	want := []string{"0439023483", "3", "1"}
	if got := SliceAnyToString(cfg["ids"]); !reflect.DeepEqual(got, want) {
		t.Errorf("SliceAnyToString = %v, want %v", got, want)
	}
	if got := SliceAnyToString("not a slice"); got != nil {
		t.Errorf("SliceAnyToString(string) = %v, want nil", got)
	}
}

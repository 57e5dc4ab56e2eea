package dataset

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/cfrec/core"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func bookCrossing(t *testing.T) Preset {
	t.Helper()
	p, err := LookupPreset("")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCSVSource_BookCrossing(t *testing.T) {
	path := writeCSV(t, `"User-ID";"ISBN";"Book-Rating"
"276725";"034545104X";"0"
"276726";" 0155061224 ";"5"
"276727";"";"7"
"";"0446520802";"7"
"276729";"052165615X";"abc"
"276729";"0521795028";"6"
`)
	src := NewCSVSource(path, bookCrossing(t))
	table, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := core.RatingTable{
		{UserID: "276725", ItemID: "034545104X", Rating: 0},
		{UserID: "276726", ItemID: "0155061224", Rating: 5},
		{UserID: "276729", ItemID: "0521795028", Rating: 6},
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("Load() = %+v, want %+v", table, want)
	}
	if st := src.Stats(); st.Rows != 6 || st.Kept != 3 || st.Dropped != 3 {
		t.Errorf("Stats() = %+v", st)
	}
	if src.Name() != "csv" || src.Location() != path {
		t.Errorf("Name/Location = %s %s", src.Name(), src.Location())
	}
}

func TestCSVSource_IndexColumnsAndOverrides(t *testing.T) {
	path := writeCSV(t, `,Unnamed: 0,index,Username,Game,Rating
0,0,0,ana,Celeste,4.5
1,1,1,bob,Hades,NaN
2,2,2,bob,Celeste,3
`)
	games, err := LookupPreset("games")
	if err != nil {
		t.Fatal(err)
	}
	table, err := NewCSVSource(path, games).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := core.RatingTable{
		{UserID: "ana", ItemID: "Celeste", Rating: 4.5},
		{UserID: "bob", ItemID: "Celeste", Rating: 3},
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("Load() = %+v, want %+v", table, want)
	}

	path = writeCSV(t, "player|title|score\nana|Celeste|4\n")
	table, err = NewCSVSource(path, games,
		WithDelimiter('|'),
		WithColumns(Columns{User: "player", Item: "title", Rating: "score"}),
	).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(table) != 1 || table[0].UserID != "ana" {
		t.Errorf("Load() = %+v", table)
	}
}

func TestCSVSource_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), bookCrossing(t)).Load(ctx)
	if !core.IsDataUnavailable(err) {
		t.Errorf("missing file err = %v, want DataUnavailable", err)
	}

	path := writeCSV(t, "User-ID;ISBN\n1;2\n")
	_, err = NewCSVSource(path, bookCrossing(t)).Load(ctx)
	if !core.IsSchemaInvalid(err) {
		t.Errorf("missing column err = %v, want SchemaInvalid", err)
	}
	if err != nil && !strings.Contains(err.Error(), "Book-Rating") {
		t.Errorf("错误信息应包含缺失的列名: %v", err)
	}

	_, err = NewCSVSource(writeCSV(t, ""), bookCrossing(t)).Load(ctx)
	if !core.IsSchemaInvalid(err) {
		t.Errorf("empty file err = %v, want SchemaInvalid", err)
	}

	_, err = NewCSVSource(writeCSV(t, "User-ID;ISBN;Book-Rating\n"), bookCrossing(t), WithEncoding("ebcdic")).Load(ctx)
	if err == nil {
		t.Error("未知编码应报错")
	}

	if _, err := LookupPreset("movielens"); err == nil {
		t.Error("未知 preset 应报错")
	}
}

func TestCSVSource_Latin1(t *testing.T) {
	// "Jos\xe9" 是 latin1 编码的 "José"
	path := writeCSV(t, "User-ID;ISBN;Book-Rating\nJos\xe9;0001;8\n")
	table, err := NewCSVSource(path, bookCrossing(t), WithEncoding("latin1")).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 || table[0].UserID != "José" {
		t.Errorf("Load() = %+v", table)
	}
}

func TestCSVSource_LazyQuotes(t *testing.T) {
	content := "User-ID;ISBN;Book-Rating\n1;\"Bad \"Quote\";5\n2;0002;6\n"
	table, err := NewCSVSource(writeCSV(t, content), bookCrossing(t)).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 || table[0].UserID != "2" {
		t.Errorf("严格模式下格式错误的行应被丢弃: %+v", table)
	}

	table, err = NewCSVSource(writeCSV(t, content), bookCrossing(t), WithLazyQuotes(true)).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 2 {
		t.Errorf("LazyQuotes 下应保留两行: %+v", table)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		user, item, rating string
		ok                 bool
	}{
		{user: "u", item: "i", rating: "7", ok: true},
		{user: " u ", item: " i ", rating: " 7.5 ", ok: true},
		{user: "u", item: "i", rating: "", ok: false},
		{user: "u", item: "i", rating: "Inf", ok: false},
		{user: "u", item: "i", rating: "seven", ok: false},
		{user: "  ", item: "i", rating: "1", ok: false},
	}
	for _, tt := range tests {
		rec, ok := NormalizeFields(tt.user, tt.item, tt.rating)
		if ok != tt.ok {
			t.Errorf("NormalizeFields(%q,%q,%q) ok = %v, want %v", tt.user, tt.item, tt.rating, ok, tt.ok)
		}
		if ok && (rec.UserID != strings.TrimSpace(tt.user) || rec.ItemID != strings.TrimSpace(tt.item)) {
			t.Errorf("NormalizeFields 未去除空白: %+v", rec)
		}
	}
}

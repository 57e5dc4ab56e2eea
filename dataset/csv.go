package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"github.com/rushteam/cfrec/core"
)

// Columns 是源文件表头到 user/item/rating 的映射。
type Columns struct {
	User   string
	Item   string
	Rating string
}

// Preset 是常见数据集导出格式。
type Preset struct {
	Delimiter rune
	Columns   Columns
}

var presets = map[string]Preset{
	// BX-Book-Ratings.csv
	"book-crossing": {Delimiter: ';', Columns: Columns{User: "User-ID", Item: "ISBN", Rating: "Book-Rating"}},
	// Username,Game,Rating
	"games": {Delimiter: ',', Columns: Columns{User: "Username", Item: "Game", Rating: "Rating"}},
}

// DefaultPreset 是未指定 preset 时的格式。
const DefaultPreset = "book-crossing"

// LookupPreset 按名称查找 Preset，名称为空时返回 DefaultPreset。
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown dataset preset %q", name)
	}
	return p, nil
}

// Stats 记录一次加载的行数统计。
type Stats struct {
	Rows    int `json:"rows"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// CSVSource 从 CSV 文件读取评分表。每次 Load 都重新读文件。
type CSVSource struct {
	Path       string
	Delimiter  rune
	Columns    Columns
	LazyQuotes bool
	// Encoding 为空或 utf-8 时按 UTF-8 读取；支持 latin1/iso-8859-1 与 windows-1252
	Encoding string

	mu    sync.Mutex
	stats Stats
}

// CSVOption 配置 CSVSource。
type CSVOption func(*CSVSource)

func WithDelimiter(d rune) CSVOption {
	return func(s *CSVSource) {
		if d != 0 {
			s.Delimiter = d
		}
	}
}

// WithColumns 覆盖列映射，为空的字段保持原值。
func WithColumns(c Columns) CSVOption {
	return func(s *CSVSource) {
		if c.User != "" {
			s.Columns.User = c.User
		}
		if c.Item != "" {
			s.Columns.Item = c.Item
		}
		if c.Rating != "" {
			s.Columns.Rating = c.Rating
		}
	}
}

func WithLazyQuotes(on bool) CSVOption {
	return func(s *CSVSource) { s.LazyQuotes = on }
}

func WithEncoding(enc string) CSVOption {
	return func(s *CSVSource) { s.Encoding = enc }
}

// NewCSVSource 以 preset 为基础创建 CSVSource，opts 在 preset 之后应用。
func NewCSVSource(path string, preset Preset, opts ...CSVOption) *CSVSource {
	s := &CSVSource{
		Path:      path,
		Delimiter: preset.Delimiter,
		Columns:   preset.Columns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Location() string { return s.Path }

// Stats 返回最近一次成功加载的统计。
func (s *CSVSource) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Load 读取并清洗整张表。
// 文件不存在返回 core.ErrDataUnavailable，缺少映射列返回 core.ErrSchemaInvalid。
func (s *CSVSource) Load(ctx context.Context) (core.RatingTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeNotFound,
				fmt.Sprintf("ratings file not found at %s", s.Path), err)
		}
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	r, err := decodeReader(f, s.Encoding)
	if err != nil {
		return nil, err
	}
	table, stats, err := ReadCSV(ctx, r, s.Delimiter, s.Columns, s.LazyQuotes)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	return table, nil
}

func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

var unnamedColumn = regexp.MustCompile(`^Unnamed: \d+$`)

// isIndexColumn 识别以前保存时带出来的行索引列。
func isIndexColumn(name string) bool {
	return name == "" || name == "index" || unnamedColumn.MatchString(name)
}

// checkEvery 读多少行检查一次 ctx
const checkEvery = 4096

// ReadCSV 从 r 读取表头与数据行，按 cols 映射列并清洗。
// 格式错误的行与清洗失败的行一样被丢弃并计入 Stats.Dropped。
func ReadCSV(ctx context.Context, r io.Reader, delimiter rune, cols Columns, lazyQuotes bool) (core.RatingTable, Stats, error) {
	var stats Stats
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.LazyQuotes = lazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidSchema, "empty ratings file", err)
		}
		return nil, stats, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidSchema, "unreadable header", err)
	}

	positions := make(map[string]int, len(header))
	available := make([]string, 0, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if isIndexColumn(name) {
			continue
		}
		if _, dup := positions[name]; !dup {
			positions[name] = i
			available = append(available, name)
		}
	}

	var idx [3]int
	for i, want := range []string{cols.User, cols.Item, cols.Rating} {
		pos, ok := positions[want]
		if !ok {
			return nil, stats, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidSchema,
				fmt.Sprintf("missing column %q (have %s)", want, strings.Join(available, ", ")), nil)
		}
		idx[i] = pos
	}

	table := core.RatingTable{}
	for line := 1; ; line++ {
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Dropped++
				continue
			}
			return nil, stats, fmt.Errorf("read row %d: %w", line, err)
		}
		if idx[0] >= len(row) || idx[1] >= len(row) || idx[2] >= len(row) {
			stats.Dropped++
			continue
		}
		rec, ok := NormalizeFields(row[idx[0]], row[idx[1]], row[idx[2]])
		if !ok {
			stats.Dropped++
			continue
		}
		table = append(table, rec)
	}
	stats.Kept = len(table)
	return table, stats, nil
}

var _ core.RatingSource = (*CSVSource)(nil)

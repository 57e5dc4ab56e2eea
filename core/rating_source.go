package core

import "context"

// RatingSource 是评分数据加载的领域接口（数据加载协作者）。
//
// 约定：
//   - 返回的 RatingTable 只包含规范字段 (user, item, rating)，已完成列映射、空值剔除和类型转换
//   - 数据源无法定位时返回 ErrDataUnavailable（可包装）
//   - 缺少必需字段时返回 ErrSchemaInvalid（可包装）
//
// 实现：
//   - dataset.CSVSource：从 CSV 文件加载
//   - dataset.StoreSource：从 core.Store（Memory/Redis）加载
type RatingSource interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// Location 返回数据源位置（文件路径或存储 key），用于调试接口
	Location() string

	// Load 加载整张评分表
	Load(ctx context.Context) (RatingTable, error)
}

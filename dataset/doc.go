// Package dataset 把外部评分数据读成 core.RatingTable。
//
// 实现：
//   - CSVSource：读取 CSV 文件（默认 Book-Crossing 的 BX-Book-Ratings 导出格式）
//   - StoreSource：从 core.Store 的一个 key 读取 JSON 数组，多实例共享同一张表
//
// 两者都经过 Normalize 清洗：去除 ID 首尾空白，丢弃空值与非有限评分。
// 引擎只看到规范化后的 user/item/rating 三列。
package dataset

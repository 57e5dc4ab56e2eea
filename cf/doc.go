// Package cf 是基于余弦相似度的协同过滤引擎（Collaborative Filtering）。
//
// 组成（依赖顺序，叶子在前）：
//   - BuildIndex：从 (user, item, rating) 评分表一次性构建 user→item 与 item→user 两个索引
//   - Similarity：仅在共同评分维度上计算余弦相似度，带最小重叠门槛
//   - TopK：按相似度降序稳定排序并截断
//   - RankForUser / SimilarItems：item-based 加权评分排序
//   - PredictLike：user-based 多数投票的喜欢/不喜欢分类
//
// 引擎无状态、无 I/O、不记录日志；所有函数只读输入索引，可被多个请求并发调用。
// 数据缺失（冷启动用户、未知物品、零重叠、零邻居）以空结果或"无法预测"表示，不返回错误。
package cf

// Package store 提供 core.Store / core.KeyValueStore 的实现。
// 接口定义在 core 包（领域层定义接口，基础设施层实现）。
//
// 在推荐链路中的角色：
//   - 批量预计算产物（按源商品的推荐列表 JSON）的落盘与读取
//   - 冷启动热度榜的有序集合
package store

// Package relkit 是一个相关商品推荐核心（Related-items Kit）。
//
// 设计要点：
// - 双通道混合：共现/lift 协同索引 + 内容向量余弦相似索引，加权融合打分
// - Pipeline-first: 推荐链路通过 Node 串联（Recall → Filter → Rank → ReRank）
// - 快照不可变：索引重建在旁路完成后原子换入，单次请求始终读同一快照
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
package relkit

import "github.com/rushteam/relkit/pipeline"

// 轻量 facade：便于用户直接 import "relkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（vector）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景（召回场景专用）：
//   - 内容相似召回：根据目标商品向量检索相似商品
//   - enrichment 第二跳：以协同候选为种子做相似检索
//
// 约定：
//   - 排序固定为相似度降序、同分按商品 ID 升序，与检索策略无关
//     （无论内存暴力扫描还是外部 ANN，契约相同）
//   - 每次调用必须受请求方超时约束；超时由召回层降级，不上抛
//
// 实现：
//   - vector.ContentIndex 实现此接口（内存暴力扫描，小目录规模可用）
//   - 其他向量后端（Milvus、Faiss、Elasticsearch 等）也可以实现此接口
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// ProductID 查询商品 ID（与 Vector 二选一；两者都给时优先 Vector）
	ProductID string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ID 商品 ID
	ID string

	// Score 相似度分数，余弦相似度 ∈ [-1,1]
	Score float64
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度降序）
	Items []VectorSearchItem
}

// EmbeddingProvider 是内容向量的来源抽象：外部 embedding 服务、
// 特征平台（如 Feast 在线特征）、本地文件等都可以实现。
// 核心只要求目录内维度一致；缺失向量的商品返回 NOT_FOUND。
type EmbeddingProvider interface {
	// GetEmbedding 获取单个商品的内容向量
	GetEmbedding(ctx context.Context, productID string) ([]float64, error)

	// BatchGetEmbeddings 批量获取，缺失的商品不出现在结果里
	BatchGetEmbeddings(ctx context.Context, productIDs []string) (map[string][]float64, error)

	// Close 关闭连接
	Close() error
}

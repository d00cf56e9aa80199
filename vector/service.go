package vector

import (
	"context"

	"github.com/rushteam/relkit/core"
)

// Service 将 ContentIndex 适配为 core.VectorService，
// 与外部 ANN 后端（Milvus、Faiss 等）的接入方式对齐：
// 召回层统一走 VectorService + 超时控制，替换后端时召回代码不变。
type Service struct {
	Index *ContentIndex
}

var _ core.VectorService = (*Service)(nil)

// NewService 创建内存向量检索服务。
func NewService(idx *ContentIndex) *Service {
	return &Service{Index: idx}
}

// Search 实现 core.VectorService。
// 请求给了 Vector 时按向量查询，否则按 ProductID 查询（排除自身）。
// 查询商品无向量时返回空结果而不是错误。
func (s *Service) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInternalError,
			"vector: search request is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Index == nil {
		return &core.VectorSearchResult{}, nil
	}

	var seq = s.Index.TopSimilar(req.ProductID, req.TopK)
	if len(req.Vector) > 0 {
		seq = s.Index.TopSimilarToVector(req.Vector, req.TopK)
	}

	result := &core.VectorSearchResult{}
	for id, sim := range seq {
		result.Items = append(result.Items, core.VectorSearchItem{ID: id, Score: sim})
	}
	return result, nil
}

// Close 实现 core.VectorService；内存实现无资源可释放。
func (s *Service) Close() error { return nil }

// Package feast 基于官方 Feast Go SDK 实现 core.EmbeddingProvider。
//
// 商品内容向量作为在线特征物化在 Feast 里，重建索引前由批处理
// 批量拉取。设计原则同其他 ext 包：领域层定义接口，基础设施层实现。
package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/relkit/core"
)

// Provider 从 Feast 在线存储按商品拉取内容向量。
type Provider struct {
	client  *feastsdk.GrpcClient
	project string

	// EntityName 实体键名，默认 "product_id"
	EntityName string

	// FeatureRef 向量特征引用（feature_view:feature 形式），
	// 默认 "product_embeddings:embedding"
	FeatureRef string

	// Timeout 单次 SDK 调用超时
	Timeout time.Duration
}

// Option 配置 Provider。
type Option func(*Provider)

// WithEntityName 设置实体键名。
func WithEntityName(name string) Option {
	return func(p *Provider) { p.EntityName = name }
}

// WithFeatureRef 设置向量特征引用。
func WithFeatureRef(ref string) Option {
	return func(p *Provider) { p.FeatureRef = ref }
}

// WithTimeout 设置单次调用超时。
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.Timeout = d }
}

// NewProvider 创建 Feast embedding 提供者。
// port 为 0 时使用默认 gRPC 端口 6565。
func NewProvider(host string, port int, project string, opts ...Option) (*Provider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: create grpc client: %w", err)
	}
	p := &Provider{
		client:     client,
		project:    project,
		EntityName: "product_id",
		FeatureRef: "product_embeddings:embedding",
		Timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GetEmbedding 获取单个商品的内容向量，缺失返回 NOT_FOUND 域错误。
func (p *Provider) GetEmbedding(ctx context.Context, productID string) ([]float64, error) {
	vectors, err := p.BatchGetEmbeddings(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	vec, ok := vectors[productID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound,
			fmt.Sprintf("feast: no embedding for product %q", productID))
	}
	return vec, nil
}

// BatchGetEmbeddings 批量获取内容向量，缺失的商品不出现在结果里。
func (p *Provider) BatchGetEmbeddings(ctx context.Context, productIDs []string) (map[string][]float64, error) {
	if len(productIDs) == 0 {
		return map[string][]float64{}, nil
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	entityRows := make([]feastsdk.Row, len(productIDs))
	for i, id := range productIDs {
		entityRows[i] = feastsdk.Row{p.EntityName: feastsdk.StrVal(id)}
	}

	resp, err := p.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: []string{p.FeatureRef},
		Entities: entityRows,
		Project:  p.project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(productIDs) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d",
			len(productIDs), len(rows))
	}

	out := make(map[string][]float64, len(productIDs))
	for i, row := range rows {
		val, ok := row[p.FeatureRef]
		if !ok || val == nil {
			continue
		}
		vec := toVector(val)
		if len(vec) == 0 {
			continue
		}
		out[productIDs[i]] = vec
	}
	return out, nil
}

// Close 关闭客户端连接。SDK 的 gRPC 连接由 gRPC 库管理，无显式 Close。
func (p *Provider) Close() error {
	p.client = nil
	return nil
}

// toVector 把 Feast 的特征值解成 float64 向量。
// 支持 double/float 列表两种物化类型。
func toVector(v *feasttypes.Value) []float64 {
	if l := v.GetDoubleListVal(); l != nil {
		return append([]float64(nil), l.GetVal()...)
	}
	if l := v.GetFloatListVal(); l != nil {
		src := l.GetVal()
		out := make([]float64, len(src))
		for i, f := range src {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}

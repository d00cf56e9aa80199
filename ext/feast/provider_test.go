package feast

import (
	"context"
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// TestProvider_BatchGetEmbeddings 需要连接真实的 Feast 服务器才能运行。
func TestProvider_BatchGetEmbeddings(t *testing.T) {
	t.Skip("需要连接真实的 Feast 服务器才能运行")

	p, err := NewProvider("localhost", 6565, "test_project")
	if err != nil {
		t.Fatalf("创建客户端失败: %v", err)
	}
	defer p.Close()

	vectors, err := p.BatchGetEmbeddings(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("批量拉取失败: %v", err)
	}
	t.Logf("拉取到 %d 条向量", len(vectors))
}

// TestToVector 测试特征值到向量的解码。
func TestToVector(t *testing.T) {
	tests := []struct {
		name string
		in   *feasttypes.Value
		want int
	}{
		{
			name: "double 列表",
			in: &feasttypes.Value{Val: &feasttypes.Value_DoubleListVal{
				DoubleListVal: &feasttypes.DoubleList{Val: []float64{0.1, 0.2, 0.3}},
			}},
			want: 3,
		},
		{
			name: "float 列表",
			in: &feasttypes.Value{Val: &feasttypes.Value_FloatListVal{
				FloatListVal: &feasttypes.FloatList{Val: []float32{1, 2}},
			}},
			want: 2,
		},
		{
			name: "非列表类型",
			in:   &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "x"}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toVector(tt.in)
			if len(got) != tt.want {
				t.Errorf("期望长度 %d，实际 %d", tt.want, len(got))
			}
		})
	}
}

// TestProviderOptions 测试可选配置。
func TestProviderOptions(t *testing.T) {
	p := &Provider{EntityName: "product_id", FeatureRef: "product_embeddings:embedding"}
	WithEntityName("item_id")(p)
	WithFeatureRef("item_vectors:vec")(p)
	if p.EntityName != "item_id" || p.FeatureRef != "item_vectors:vec" {
		t.Errorf("选项未生效: %+v", p)
	}
}

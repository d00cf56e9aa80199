package recommender

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/relkit/core"
)

// 预计算产物的存储键名约定
const (
	recKeyPrefix  = "rec:"
	popularityKey = "popularity"
)

// SaveArtifacts 将预计算结果写入存储，供在线服务按键查表。
// 每个商品一条 JSON 记录（键 rec:<productID>），热度榜写入有序集合。
// ttl 以秒计，省略时不过期。
func SaveArtifacts(ctx context.Context, s core.Store, snap *core.Snapshot, results map[string][]core.Recommendation, ttl ...int) error {
	kv := make(map[string][]byte, len(results))
	for id, recs := range results {
		data, err := json.Marshal(recs)
		if err != nil {
			return fmt.Errorf("recommender: marshal recommendations for %q: %w", id, err)
		}
		kv[recKeyPrefix+id] = data
	}
	if err := s.BatchSet(ctx, kv, ttl...); err != nil {
		return err
	}

	if zs, ok := s.(core.KeyValueStore); ok && snap != nil {
		for _, p := range snap.Popular {
			if err := zs.ZAdd(ctx, popularityKey, float64(p.Popularity), p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadArtifact 按商品读出一份预计算推荐列表。
// 未命中返回 NOT_FOUND 域错误。
func LoadArtifact(ctx context.Context, s core.Store, productID string) ([]core.Recommendation, error) {
	data, err := s.Get(ctx, recKeyPrefix+productID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
				fmt.Sprintf("recommender: no precomputed list for %q", productID))
		}
		return nil, err
	}
	var recs []core.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("recommender: decode recommendations for %q: %w", productID, err)
	}
	return recs, nil
}

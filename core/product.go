package core

import "time"

// EventType 是交互事件类型。
type EventType string

const (
	EventView     EventType = "view"
	EventCart     EventType = "cart"
	EventPurchase EventType = "purchase"
)

// Product 是商品目录中的一条记录。
// 批处理周期内不可变，目录重载时整体刷新。
type Product struct {
	ID         string `json:"id"`
	Available  bool   `json:"available"`
	Popularity int64  `json:"popularity"` // 全局热度计数（可选，用于冷启动兜底）
}

// InteractionEvent 是一条交互日志记录（append-only，不会被修改）。
// TransactionID 标识一次订单或会话，共现统计以它为分组键。
type InteractionEvent struct {
	TransactionID string    `json:"transaction_id"`
	ProductID     string    `json:"product_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// Valid 校验单条事件是否满足 schema。
// 不合法的事件在 Build 时逐条跳过（见 cooccur.BuildStats）。
func (e InteractionEvent) Valid() bool {
	if e.TransactionID == "" || e.ProductID == "" {
		return false
	}
	switch e.Type {
	case EventView, EventCart, EventPurchase:
		return true
	}
	return false
}

// Embedding 是一条内容向量记录，由外部 embedding 服务产出。
// 入库时统一归一化到单位长度，余弦相似度退化为点积。
type Embedding struct {
	ProductID string    `json:"product_id"`
	Vector    []float64 `json:"vector"`
}

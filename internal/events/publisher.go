package events

import "context"

const (
	EventOrderPlaced    = "order.placed"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderFulfilled = "order.fulfilled"
)

// 注文のライフサイクルイベント。下流（通知、分析）向け。
type OrderEvent struct {
	Type       string `json:"type"`
	OrderID    int64  `json:"order_id"`
	TotalPence int64  `json:"total_pence"`
	OccurredAt int64  `json:"occurred_at"`
}

// 発行はベストエフォート。失敗しても業務処理は止めない。
type Publisher interface {
	Publish(ctx context.Context, evt OrderEvent)
	Close() error
}

// NoopPublisher はブローカー未設定のときに使う。
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evt OrderEvent) {}
func (NoopPublisher) Close() error                                { return nil }

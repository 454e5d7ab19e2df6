package model

import "time"

type StockMovementReason string

const (
	//支払い完了Webhookでの減算。
	StockReasonOrderPaid StockMovementReason = "ORDER_PAID"
	//PAID注文キャンセルでの在庫戻し。
	StockReasonOrderCancelled StockMovementReason = "ORDER_CANCELLED"
)

// 在庫増減の履歴。Webhook処理の監査とショートフォールの可視化に使う。
type StockMovement struct {
	ID      int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU     string              `gorm:"type:varchar(32);not null;index" json:"sku"`
	OrderID int64               `gorm:"not null;index" json:"order_id"`
	//要求した増減量（減算は負）。
	Delta int64 `gorm:"not null" json:"delta"`
	//クランプ後の実際の在庫。
	ResultingQty int64               `gorm:"not null" json:"resulting_qty"`
	Reason       StockMovementReason `gorm:"type:varchar(30);not null" json:"reason"`
	//床クランプで吸収された不足分（0なら不足なし）。
	Shortfall int64     `gorm:"not null;default:0" json:"shortfall"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

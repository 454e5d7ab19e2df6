package model

import "time"

// 注文時点のスナップショット。商品が後から改名・値下げ・削除されても変わらない。
// 商品とはFKで繋がず、SKUだけを持つ。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(140);not null" json:"product_name_snapshot"`
	SKU                 string    `gorm:"type:varchar(32);not null;index" json:"sku"`
	UnitPricePence      int64     `gorm:"not null" json:"unit_price_pence"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	LineTotalPence      int64     `gorm:"not null" json:"line_total_pence"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

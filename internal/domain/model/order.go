package model

import "time"

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ゲスト購入を許すのでUserIDはnull可。
// TotalPenceは必ず明細のLineTotalPenceの合計と一致する。
type Order struct {
	ID                    int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                *int64      `gorm:"index" json:"user_id"`
	Email                 string      `gorm:"type:varchar(254);not null" json:"email"`
	Status                OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPence            int64       `gorm:"not null" json:"total_pence"`
	StripeSessionID       string      `gorm:"type:varchar(255)" json:"-"`
	StripePaymentIntentID string      `gorm:"type:varchar(255)" json:"-"`
	StripeSessionURL      string      `gorm:"type:text" json:"-"`
	CreatedAt             time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// FULFILLED / CANCELLED は終端
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

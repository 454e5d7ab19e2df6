package repository

import (
	"context"
	"time"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

// 支払い完了時にまとめて書き込む値。
type PaymentDetails struct {
	SessionID       string
	PaymentIntentID string
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	//行ロック付きで取得（SELECT ... FOR UPDATE）。トランザクション内でのみ使う。
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//ステータスをPAIDにし、プロバイダのIDを記録する。1クエリで行う。
	MarkPaid(ctx context.Context, orderID int64, p PaymentDetails) error

	//チェックアウトセッションの識別子を保存する。
	SavePaymentSession(ctx context.Context, orderID int64, sessionID, paymentIntentID, sessionURL string) error

	//運用向けの注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TGOSS1984/ashen-emporium/internal/cart"
	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/events"
	"github.com/TGOSS1984/ashen-emporium/internal/logger"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	carts cart.Store
	pub   events.Publisher
}

func NewOrderUsecase(tx repo.TransactionManager, carts cart.Store, pub events.Publisher) *OrderUsecase {
	return &OrderUsecase{tx: tx, carts: carts, pub: pub}
}

type CheckoutInput struct {
	Email string
}

type OrderItemOutput struct {
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPricePence int64  `json:"unit_price_pence"`
	Quantity       int64  `json:"quantity"`
	LineTotalPence int64  `json:"line_total_pence"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	Email      string            `json:"email"`
	Status     string            `json:"status"`
	TotalPence int64             `json:"total_pence"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemOutput `json:"items"`
}

// Checkout はカートのスナップショットから注文を作る。
// 在庫チェックはプリフライトのみで予約はしない。チェックから支払い完了までの
// 競合は、Webhook側の床クランプ減算で最終的に吸収する。
func (u *OrderUsecase) Checkout(ctx context.Context, sessionID string, in CheckoutInput) (OrderOutput, error) {
	if sessionID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "no cart session")
	}

	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") || len(email) > 254 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	lines, err := u.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}
	if len(lines) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	var out OrderOutput

	//注文と明細は必ず一緒にコミットする
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(lines))
		var total int64 = 0

		for _, line := range lines {
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if err == repo.ErrNotFound {
				//消えた・無効化された商品はカート表示と同じく読み飛ばす
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				continue
			}

			//プリフライト在庫チェック（予約ではない）
			if p.StockQty < line.Qty {
				return NewHTTPError(http.StatusConflict, "not enough stock for "+p.Name)
			}

			lineTotal := p.PricePence * line.Qty
			orderItems = append(orderItems, model.OrderItem{
				ProductNameSnapshot: p.Name,
				SKU:                 p.SKU,
				UnitPricePence:      p.PricePence,
				Quantity:            line.Qty,
				LineTotalPence:      lineTotal,
			})
			total += lineTotal
		}

		if len(orderItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//注文作成（チェックアウト経路ではDRAFTを作らない）
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			Email:      email,
			Status:     model.OrderStatusPlaced,
			TotalPence: total,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Order{
			ID:         orderID,
			Email:      email,
			Status:     model.OrderStatusPlaced,
			TotalPence: total,
			CreatedAt:  now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//コミット後にカートを空にする。失敗しても注文は成立している。
	if err := u.carts.Clear(ctx, sessionID); err != nil {
		logger.Warn("clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Int64("order_id", out.ID),
			zap.Error(err),
		)
	}

	u.pub.Publish(ctx, events.OrderEvent{
		Type:       events.EventOrderPlaced,
		OrderID:    out.ID,
		TotalPence: out.TotalPence,
		OccurredAt: time.Now().Unix(),
	})

	return out, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			Name:           it.ProductNameSnapshot,
			SKU:            it.SKU,
			UnitPricePence: it.UnitPricePence,
			Quantity:       it.Quantity,
			LineTotalPence: it.LineTotalPence,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		Email:      o.Email,
		Status:     string(o.Status),
		TotalPence: o.TotalPence,
		CreatedAt:  o.CreatedAt,
		Items:      outItems,
	}
}

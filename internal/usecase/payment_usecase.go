package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/gateway"
	"github.com/TGOSS1984/ashen-emporium/internal/logger"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

// PaymentUsecase は注文とチェックアウトセッションの橋渡し。
type PaymentUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	gw         gateway.Client

	currency   string
	successURL string
	cancelURL  string
}

func NewPaymentUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	gw gateway.Client,
	currency string,
	successURL string,
	cancelURL string,
) *PaymentUsecase {
	return &PaymentUsecase{
		orders:     orders,
		orderItems: orderItems,
		gw:         gw,
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

type StartCheckoutOutput struct {
	RedirectURL string `json:"redirect_url"`
}

// StartCheckout は注文ごとに冪等：既に有効なセッションURLがあれば
// プロバイダを呼ばず同じURLを返す。reset=trueで作り直せる。
func (u *PaymentUsecase) StartCheckout(ctx context.Context, orderID int64, reset bool) (StartCheckoutOutput, error) {
	if orderID <= 0 {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if o.Status == model.OrderStatusPaid {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusConflict, "order already paid")
	}
	if o.Status.Terminal() {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusConflict, "order closed")
	}

	//既存セッションの再利用（重複セッション防止）
	if o.Status == model.OrderStatusPlaced && o.StripeSessionURL != "" && !reset {
		return StartCheckoutOutput{RedirectURL: o.StripeSessionURL}, nil
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusConflict, "order has no items")
	}

	//明細はスナップショットから作る。現行の商品価格は見ない。
	lineItems := make([]gateway.LineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, gateway.LineItem{
			Name:           it.ProductNameSnapshot,
			UnitPricePence: it.UnitPricePence,
			Quantity:       it.Quantity,
		})
	}

	sess, err := u.gw.CreateSession(ctx, gateway.CreateSessionRequest{
		OrderID:    orderID,
		Email:      o.Email,
		Currency:   u.currency,
		LineItems:  lineItems,
		SuccessURL: fmt.Sprintf("%s?order_id=%d", u.successURL, orderID),
		CancelURL:  fmt.Sprintf("%s?order_id=%d", u.cancelURL, orderID),
	})
	if err != nil {
		//注文はPLACEDのまま。セッションは作られていない。
		if errors.Is(err, gateway.ErrMisconfigured) {
			return StartCheckoutOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment gateway not configured")
		}
		if errors.Is(err, gateway.ErrUnavailable) {
			return StartCheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
		}
		return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "payment error")
	}

	//プロバイダが返した識別子を記録する。ここが失敗しても
	//セッション自体は生きているのでURLは返す。
	if err := u.orders.SavePaymentSession(ctx, orderID, sess.SessionID, sess.PaymentIntentID, sess.RedirectURL); err != nil {
		logger.Error("save payment session",
			zap.Int64("order_id", orderID),
			zap.String("session_id", sess.SessionID),
			zap.Error(err),
		)
	}

	return StartCheckoutOutput{RedirectURL: sess.RedirectURL}, nil
}

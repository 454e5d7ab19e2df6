package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/gateway"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
	"github.com/TGOSS1984/ashen-emporium/internal/usecase"
)

func newPaymentUsecase(orders *OrderRepoMock, items *OrderItemRepoMock, gw gateway.Client) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(orders, items, gw,
		"gbp",
		"https://shop.example.com/payments/success",
		"https://shop.example.com/payments/cancel",
	)
}

func TestPaymentUsecase_StartCheckout_NotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	uc := newPaymentUsecase(orders, new(OrderItemRepoMock), &GatewayStub{})

	_, err := uc.StartCheckout(context.Background(), 99, false)
	assertErrContains(t, err, "not found")
}

func TestPaymentUsecase_StartCheckout_AlreadyPaid(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusPaid}, nil)

	gw := &GatewayStub{}
	uc := newPaymentUsecase(orders, new(OrderItemRepoMock), gw)

	_, err := uc.StartCheckout(context.Background(), 1, false)
	assertErrContains(t, err, "order already paid")
	assert.Equal(t, 0, gw.CreateCalls)
}

func TestPaymentUsecase_StartCheckout_ClosedOrder(t *testing.T) {
	for _, status := range []model.OrderStatus{model.OrderStatusFulfilled, model.OrderStatusCancelled} {
		orders := new(OrderRepoMock)
		orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: status}, nil)

		uc := newPaymentUsecase(orders, new(OrderItemRepoMock), &GatewayStub{})

		_, err := uc.StartCheckout(context.Background(), 1, false)
		assertErrContains(t, err, "order closed")
	}
}

// 既存セッションがあればプロバイダを呼ばず同じURLを返す
func TestPaymentUsecase_StartCheckout_ReusesExistingSession(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:               1,
		Status:           model.OrderStatusPlaced,
		StripeSessionURL: "https://checkout.stripe.com/c/pay/cs_old",
	}, nil)

	gw := &GatewayStub{}
	uc := newPaymentUsecase(orders, new(OrderItemRepoMock), gw)

	out, err := uc.StartCheckout(context.Background(), 1, false)
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_old", out.RedirectURL)

	assert.Equal(t, 0, gw.CreateCalls)
	orders.AssertNotCalled(t, "SavePaymentSession",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// reset=trueなら既存URLを無視して作り直す
func TestPaymentUsecase_StartCheckout_ResetCreatesNewSession(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:               1,
		Email:            "ash@example.com",
		Status:           model.OrderStatusPlaced,
		StripeSessionURL: "https://checkout.stripe.com/c/pay/cs_old",
	}, nil)

	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{ProductNameSnapshot: "Ember", UnitPricePence: 800, Quantity: 2},
	}, nil)

	orders.On("SavePaymentSession", mock.Anything, int64(1),
		"cs_new", "pi_new", "https://checkout.stripe.com/c/pay/cs_new").Return(nil)

	gw := &GatewayStub{
		CreateSessionFn: func(ctx context.Context, req gateway.CreateSessionRequest) (gateway.CheckoutSession, error) {
			assert.Equal(t, int64(1), req.OrderID)
			assert.Equal(t, "gbp", req.Currency)
			assert.Contains(t, req.SuccessURL, "order_id=1")
			if assert.Len(t, req.LineItems, 1) {
				assert.Equal(t, int64(800), req.LineItems[0].UnitPricePence)
			}
			return gateway.CheckoutSession{
				SessionID:       "cs_new",
				PaymentIntentID: "pi_new",
				RedirectURL:     "https://checkout.stripe.com/c/pay/cs_new",
			}, nil
		},
	}

	uc := newPaymentUsecase(orders, items, gw)

	out, err := uc.StartCheckout(context.Background(), 1, true)
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_new", out.RedirectURL)
	assert.Equal(t, 1, gw.CreateCalls)
	orders.AssertExpectations(t)
}

func TestPaymentUsecase_StartCheckout_EmptyOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusPlaced}, nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	uc := newPaymentUsecase(orders, items, &GatewayStub{})

	_, err := uc.StartCheckout(context.Background(), 1, false)
	assertErrContains(t, err, "order has no items")
}

// ゲートウェイ障害では注文を一切触らない。PLACEDのまま再試行できる。
func TestPaymentUsecase_StartCheckout_GatewayErrors(t *testing.T) {
	cases := []struct {
		name       string
		gwErr      error
		wantStatus int
		wantMsg    string
	}{
		{"misconfigured", gateway.ErrMisconfigured, 503, "payment gateway not configured"},
		{"unavailable", errors.Join(gateway.ErrUnavailable, errors.New("timeout")), 502, "payment gateway unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := new(OrderRepoMock)
			items := new(OrderItemRepoMock)

			orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
				ID: 1, Status: model.OrderStatusPlaced,
			}, nil)
			items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
				{ProductNameSnapshot: "Ember", UnitPricePence: 800, Quantity: 1},
			}, nil)

			gw := &GatewayStub{
				CreateSessionFn: func(ctx context.Context, req gateway.CreateSessionRequest) (gateway.CheckoutSession, error) {
					return gateway.CheckoutSession{}, tc.gwErr
				},
			}

			uc := newPaymentUsecase(orders, items, gw)

			_, err := uc.StartCheckout(context.Background(), 1, false)
			assertErrContains(t, err, tc.wantMsg)

			he, ok := usecase.AsHTTPError(err)
			assert.True(t, ok)
			assert.Equal(t, tc.wantStatus, he.Status)

			orders.AssertNotCalled(t, "SavePaymentSession",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// 識別子の保存に失敗してもセッション自体は生きているのでURLは返す
func TestPaymentUsecase_StartCheckout_SaveFailureStillReturnsURL(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID: 1, Status: model.OrderStatusPlaced,
	}, nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{ProductNameSnapshot: "Ember", UnitPricePence: 800, Quantity: 1},
	}, nil)
	orders.On("SavePaymentSession", mock.Anything, int64(1),
		mock.Anything, mock.Anything, mock.Anything).Return(errors.New("deadlock"))

	gw := &GatewayStub{
		CreateSessionFn: func(ctx context.Context, req gateway.CreateSessionRequest) (gateway.CheckoutSession, error) {
			return gateway.CheckoutSession{SessionID: "cs_1", RedirectURL: "https://checkout.example/cs_1"}, nil
		},
	}

	uc := newPaymentUsecase(orders, items, gw)

	out, err := uc.StartCheckout(context.Background(), 1, false)
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", out.RedirectURL)
}

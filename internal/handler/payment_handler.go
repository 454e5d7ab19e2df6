package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/TGOSS1984/ashen-emporium/internal/middleware"
	"github.com/TGOSS1984/ashen-emporium/internal/usecase"
)

// /payments のHTTP。Webhook受け口もここ。
type PaymentHandler struct {
	payments *usecase.PaymentUsecase
	webhooks *usecase.WebhookUsecase
}

func NewPaymentHandler(payments *usecase.PaymentUsecase, webhooks *usecase.WebhookUsecase) *PaymentHandler {
	return &PaymentHandler{payments: payments, webhooks: webhooks}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/payments")

	g.POST("/checkout/:order_id", h.startCheckout, middleware.RateLimitStrict())

	//Webhookにはレートリミットを掛けない。429はリトライの嵐になる。
	g.POST("/webhook", h.webhook)
}

func (h *PaymentHandler) startCheckout(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	//reset=1で既存セッションを捨てて作り直す
	reset := c.QueryParam("reset") == "1"

	out, err := h.payments.StartCheckout(c.Request().Context(), orderID, reset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// webhook は生ボディのまま検証に渡す。Bindすると署名対象が壊れる。
// 構造的に妥当なイベントは（無視するtypeも含めて）必ず200で返す。
func (h *PaymentHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")

	if err := h.webhooks.HandleEvent(c.Request().Context(), payload, sigHeader); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"received": "true"})
}

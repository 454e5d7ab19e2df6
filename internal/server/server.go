package server

import (
	"github.com/labstack/echo/v4"

	"github.com/TGOSS1984/ashen-emporium/internal/handler"
	"github.com/TGOSS1984/ashen-emporium/internal/middleware"
)

type Handlers struct {
	Products      *handler.ProductHandler
	Cart          *handler.CartHandler
	Orders        *handler.OrderHandler
	Payments      *handler.PaymentHandler
	AdminOrders   *handler.AdminOrderHandler
	AdminProducts *handler.AdminProductHandler
}

// New は全ルートを登録したechoを返す。
func New(h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLogger())
	e.Use(middleware.RateLimit())

	h.Products.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e)
	h.Orders.RegisterRoutes(e)
	h.Payments.RegisterRoutes(e)
	h.AdminOrders.RegisterRoutes(e)
	h.AdminProducts.RegisterRoutes(e)

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}

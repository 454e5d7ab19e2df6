package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/TGOSS1984/ashen-emporium/internal/usecase"
)

type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type AdminProductRequest struct {
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	Rarity           string `json:"rarity"`
	PricePence       int64  `json:"price_pence"`
	StockQty         int64  `json:"stock_qty"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	IsActive         bool   `json:"is_active"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin/products")

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateProduct(c.Request().Context(), usecase.CreateProductInput{
		SKU:              req.SKU,
		Name:             req.Name,
		Category:         req.Category,
		Rarity:           req.Rarity,
		PricePence:       req.PricePence,
		StockQty:         req.StockQty,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		IsActive:         req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//在庫はここでは触らない。在庫はInventoryの減算/戻し経由だけにする。
	if err := h.uc.UpdateProduct(c.Request().Context(), id, usecase.UpdateProductInput{
		Name:             req.Name,
		Category:         req.Category,
		Rarity:           req.Rarity,
		PricePence:       req.PricePence,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		IsActive:         req.IsActive,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
}

func (h *AdminProductHandler) remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "deleted"})
}

package usecase

import (
	"context"
	"net/http"

	"github.com/TGOSS1984/ashen-emporium/internal/cart"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートの中身はRedis、価格は常に現行の商品から引き直す。
type CartUsecase struct {
	store       cart.Store
	productRepo repo.ProductRepository
}

func NewCartUsecase(store cart.Store, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{store: store, productRepo: productRepo}
}

type CartItemResponse struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	PricePence     int64  `json:"price_pence"`
	Quantity       int64  `json:"quantity"`
	LineTotalPence int64  `json:"line_total_pence"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalPence int64              `json:"total_pence"`
}

// View は現役商品だけを表示する。消えた商品の行は出さない。
func (u *CartUsecase) View(ctx context.Context, sessionID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{Items: []CartItemResponse{}}, nil
	}

	lines, err := u.store.Snapshot(ctx, sessionID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}

	res := CartResponse{Items: make([]CartItemResponse, 0, len(lines))}
	for _, line := range lines {
		p, err := u.productRepo.FindByID(ctx, line.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			continue
		}

		lineTotal := p.PricePence * line.Qty
		res.Items = append(res.Items, CartItemResponse{
			ProductID:      p.ID,
			Name:           p.Name,
			SKU:            p.SKU,
			PricePence:     p.PricePence,
			Quantity:       line.Qty,
			LineTotalPence: lineTotal,
		})
		res.TotalPence += lineTotal
	}

	return res, nil
}

func (u *CartUsecase) Add(ctx context.Context, sessionID string, productID int64, qty int64) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "no cart session")
	}
	if productID <= 0 || qty <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item")
	}

	//現役商品しか入れられない
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.store.Add(ctx, sessionID, productID, qty); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}
	return nil
}

func (u *CartUsecase) SetQty(ctx context.Context, sessionID string, productID int64, qty int64) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "no cart session")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item")
	}

	//qty<=0は削除として扱う
	if err := u.store.SetQty(ctx, sessionID, productID, qty); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}
	return nil
}

func (u *CartUsecase) Remove(ctx context.Context, sessionID string, productID int64) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "no cart session")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item")
	}

	if err := u.store.Remove(ctx, sessionID, productID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Category string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.productRepo.ListActive(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Category: in.Category,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetPublicProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//非公開商品は存在しない扱い
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type CreateProductInput struct {
	SKU              string
	Name             string
	Category         string
	Rarity           string
	PricePence       int64
	StockQty         int64
	ShortDescription string
	Description      string
	IsActive         bool
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (model.Product, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || len(sku) > 32 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid sku")
	}
	if name == "" || len(name) > 140 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.PricePence < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if in.StockQty < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid stock")
	}

	p := model.Product{
		SKU:              sku,
		Name:             name,
		Slug:             slugify(name),
		Category:         model.ProductCategory(in.Category),
		Rarity:           model.ProductRarity(in.Rarity),
		PricePence:       in.PricePence,
		StockQty:         in.StockQty,
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		IsActive:         in.IsActive,
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		//SKU/Slugの一意制約違反はここに来る
		return model.Product{}, NewHTTPError(http.StatusConflict, "sku or slug already exists")
	}
	return created, nil
}

type UpdateProductInput struct {
	Name             string
	Category         string
	Rarity           string
	PricePence       int64
	ShortDescription string
	Description      string
	IsActive         bool
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, id int64, in UpdateProductInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 140 {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.PricePence < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	//価格や名前を変えても既存注文のスナップショットは変わらない
	err := u.productRepo.Update(ctx, model.Product{
		ID:               id,
		Name:             name,
		Category:         model.ProductCategory(in.Category),
		Rarity:           model.ProductRarity(in.Rarity),
		PricePence:       in.PricePence,
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		IsActive:         in.IsActive,
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.productRepo.SoftDelete(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// slugifyは英数字以外をハイフンに落とす。
func slugify(s string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = fmt.Sprintf("product-%d", len(s))
	}
	return out
}

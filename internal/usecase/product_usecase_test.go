package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
	"github.com/TGOSS1984/ashen-emporium/internal/usecase"
)

func TestProductUsecase_ListPublicProducts_InvalidPage(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock))

	_, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")
}

func TestProductUsecase_ListPublicProducts_Success(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("ListActive", mock.Anything, repo.ProductListQuery{Page: 1, Limit: 20, Category: "weapon"}).
		Return([]model.Product{{ID: 1, Name: "Zweihander"}}, int64(1), nil)

	uc := usecase.NewProductUsecase(prodRepo)

	out, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Category: "weapon"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
}

// 非公開商品は存在しない扱い
func TestProductUsecase_GetPublicProduct_InactiveHidden(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Retired", IsActive: false}, nil)

	uc := usecase.NewProductUsecase(prodRepo)

	_, err := uc.GetPublicProduct(context.Background(), 1)
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_CreateProduct_Validation(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock))

	cases := []struct {
		name string
		in   usecase.CreateProductInput
		want string
	}{
		{"empty sku", usecase.CreateProductInput{Name: "Ember", PricePence: 100}, "invalid sku"},
		{"empty name", usecase.CreateProductInput{SKU: "EMB-001", PricePence: 100}, "invalid name"},
		{"negative price", usecase.CreateProductInput{SKU: "EMB-001", Name: "Ember", PricePence: -1}, "invalid price"},
		{"negative stock", usecase.CreateProductInput{SKU: "EMB-001", Name: "Ember", PricePence: 100, StockQty: -1}, "invalid stock"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.CreateProduct(context.Background(), tc.in)
			assertErrContains(t, err, tc.want)
		})
	}
}

func TestProductUsecase_CreateProduct_SlugFromName(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Slug == "sword-of-the-abyss-walker"
	})).Return(model.Product{ID: 1, Slug: "sword-of-the-abyss-walker"}, nil)

	uc := usecase.NewProductUsecase(prodRepo)

	created, err := uc.CreateProduct(context.Background(), usecase.CreateProductInput{
		SKU:        "SWD-001",
		Name:       "Sword of the Abyss Walker!",
		Category:   "weapon",
		Rarity:     "rare",
		PricePence: 12000,
		StockQty:   3,
		IsActive:   true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	prodRepo.AssertExpectations(t)
}

func TestProductUsecase_CreateProduct_DuplicateSKU(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("Create", mock.Anything, mock.Anything).
		Return(model.Product{}, errors.New(`duplicate key value violates unique constraint "idx_products_sku"`))

	uc := usecase.NewProductUsecase(prodRepo)

	_, err := uc.CreateProduct(context.Background(), usecase.CreateProductInput{
		SKU: "EMB-001", Name: "Ember", PricePence: 800,
	})
	assertErrContains(t, err, "sku or slug already exists")
}

func TestProductUsecase_UpdateProduct_NotFound(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("Update", mock.Anything, mock.Anything).Return(repo.ErrNotFound)

	uc := usecase.NewProductUsecase(prodRepo)

	err := uc.UpdateProduct(context.Background(), 99, usecase.UpdateProductInput{Name: "Ember", PricePence: 800})
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_DeleteProduct_Success(t *testing.T) {
	prodRepo := new(ProductRepoMock)
	prodRepo.On("SoftDelete", mock.Anything, int64(1)).Return(nil)

	uc := usecase.NewProductUsecase(prodRepo)

	assert.NoError(t, uc.DeleteProduct(context.Background(), 1))
	prodRepo.AssertExpectations(t)
}

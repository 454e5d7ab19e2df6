package repository

import (
	"context"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫減算。GREATESTで0に床クランプし、減算後の値を返す。
// 支払いは既に完了しているので在庫不足でも失敗させない。
func (r *InventoryGormRepository) DecrementClamped(ctx context.Context, sku string, qty int64) (int64, bool, error) {
	var newQty []int64
	err := r.db.WithContext(ctx).
		Raw(`UPDATE products
		     SET stock_qty = GREATEST(stock_qty - ?, 0), updated_at = NOW()
		     WHERE sku = ? AND deleted_at IS NULL
		     RETURNING stock_qty`, qty, sku).
		Scan(&newQty).Error
	if err != nil {
		return 0, false, err
	}
	//SKUが消えていたら何も減らない（呼び出し側でスキップ）
	if len(newQty) == 0 {
		return 0, false, nil
	}
	return newQty[0], true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, sku string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("sku = ?", sku).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 増減履歴作成
func (r *InventoryGormRepository) CreateMovement(ctx context.Context, m model.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	return nil
}

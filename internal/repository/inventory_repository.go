package repository

import (
	"context"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫減算。0で床クランプし、減算後の在庫を返す。
	// SKUに該当する商品がなければ found=false（エラーではない）。
	DecrementClamped(ctx context.Context, sku string, qty int64) (newQty int64, found bool, err error)

	// 在庫戻し（PAID注文のキャンセルなど）
	IncreaseStock(ctx context.Context, sku string, qty int64) error

	// 増減履歴作成
	CreateMovement(ctx context.Context, m model.StockMovement) error
}

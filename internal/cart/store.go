package cart

import "context"

// カートの1行。数量と商品参照だけ持ち、価格はチェックアウト時に引き直す。
type Line struct {
	ProductID int64
	Qty       int64
}

// セッション単位のカート。注文側からはSnapshotとClearだけ使う。
type Store interface {
	//現在の中身をProductID昇順で返す。
	Snapshot(ctx context.Context, sessionID string) ([]Line, error)

	//数量を加算する（同一商品は合算）。結果が0以下なら行ごと消す。
	Add(ctx context.Context, sessionID string, productID int64, qty int64) error

	//数量を設定する。0以下なら行ごと消す。
	SetQty(ctx context.Context, sessionID string, productID int64, qty int64) error

	Remove(ctx context.Context, sessionID string, productID int64) error
	Clear(ctx context.Context, sessionID string) error
}

package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/events"
	"github.com/TGOSS1984/ashen-emporium/internal/gateway"
	"github.com/TGOSS1984/ashen-emporium/internal/logger"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

// WebhookUsecase は決済プロバイダからの非同期イベントを注文に反映する。
// 配送は at-least-once：同じイベントが何度来ても結果は1回分。
type WebhookUsecase struct {
	tx  repo.TransactionManager
	gw  gateway.Client
	pub events.Publisher
}

func NewWebhookUsecase(tx repo.TransactionManager, gw gateway.Client, pub events.Publisher) *WebhookUsecase {
	return &WebhookUsecase{tx: tx, gw: gw, pub: pub}
}

// HandleEvent は生のWebhookボディと署名ヘッダを受け取り、
// 1. 署名検証 2. typeの分類 3. 注文の解決 4. 行ロック下での冪等遷移
// 5. 在庫反映 をひとつのトランザクションで行う。
//
// nilを返したらhandlerは200を返す。プロバイダのリトライは
// レスポンスコードだけを見るので、処理済みイベントの再配送も必ず成功にする。
func (u *WebhookUsecase) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	evt, err := u.gw.VerifyEvent(payload, sigHeader)
	if err != nil {
		if errors.Is(err, gateway.ErrMisconfigured) {
			//シークレット未設定は素通しではなく即失敗
			return NewHTTPError(http.StatusBadRequest, "webhook secret not configured")
		}
		if errors.Is(err, gateway.ErrInvalidPayload) {
			return NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	//支払い完了以外は正常にACKして無視する。
	//未知のtypeで失敗するとプロバイダ側のスキーマ進化に追従できない。
	if evt.Type != gateway.EventCheckoutSessionCompleted || evt.Session == nil {
		return nil
	}

	orderID, err := strconv.ParseInt(evt.Session.OrderID, 10, 64)
	if err != nil || orderID <= 0 {
		//order_idが無い・壊れている。呼び出し側エラーではなく運用向けに記録。
		logger.Warn("webhook event with unresolvable order id",
			zap.String("event_id", evt.ID),
			zap.String("order_id", evt.Session.OrderID),
		)
		return nil
	}

	var transitioned bool
	var totalPence int64

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//この注文1行だけロックする。注文ごとの直列化で、
		//別注文のWebhookは互いにブロックしない。
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err == repo.ErrNotFound {
			logger.Warn("webhook event for unknown order",
				zap.String("event_id", evt.ID),
				zap.Int64("order_id", orderID),
			)
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//PAIDなら処理済み。ステータス自体が重複排除のガード。
		if o.Status == model.OrderStatusPaid {
			return nil
		}
		if o.Status != model.OrderStatusPlaced {
			logger.Warn("payment completed for order not awaiting payment",
				zap.Int64("order_id", orderID),
				zap.String("status", string(o.Status)),
			)
			return nil
		}

		if err := r.Orders().MarkPaid(ctx, orderID, repo.PaymentDetails{
			SessionID:       evt.Session.SessionID,
			PaymentIntentID: evt.Session.PaymentIntentID,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫反映はスナップショットのSKUで現行商品を引き直す。
		//商品が消えていても注文のPAID化は止めない。
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			p, err := r.Products().FindBySKU(ctx, it.SKU)
			if err == repo.ErrNotFound {
				logger.Warn("sku missing at payment time, skipping decrement",
					zap.Int64("order_id", orderID),
					zap.String("sku", it.SKU),
				)
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//支払いは確定済みなので不足でも失敗させず0で床クランプ
			var shortfall int64 = 0
			if p.StockQty < it.Quantity {
				shortfall = it.Quantity - p.StockQty
			}

			newQty, found, err := r.Inventory().DecrementClamped(ctx, it.SKU, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !found {
				continue
			}

			if err := r.Inventory().CreateMovement(ctx, model.StockMovement{
				SKU:          it.SKU,
				OrderID:      orderID,
				Delta:        -it.Quantity,
				ResultingQty: newQty,
				Reason:       model.StockReasonOrderPaid,
				Shortfall:    shortfall,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if shortfall > 0 {
				logger.Warn("stock shortfall absorbed at payment",
					zap.Int64("order_id", orderID),
					zap.String("sku", it.SKU),
					zap.Int64("requested", it.Quantity),
					zap.Int64("shortfall", shortfall),
				)
			}
		}

		transitioned = true
		totalPence = o.TotalPence
		return nil
	})

	if err != nil {
		return err
	}

	//遷移した1回だけ発行。重複配送のno-opでは発行しない。
	if transitioned {
		u.pub.Publish(ctx, events.OrderEvent{
			Type:       events.EventOrderPaid,
			OrderID:    orderID,
			TotalPence: totalPence,
			OccurredAt: time.Now().Unix(),
		})
	}

	return nil
}

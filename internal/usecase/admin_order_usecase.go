package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/events"
	"github.com/TGOSS1984/ashen-emporium/internal/logger"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	pub       events.Publisher
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository, pub events.Publisher) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, pub: pub}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ListAuditLogs は注文に対する運用操作の履歴を返す。
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	logs, err := u.auditRepo.List(ctx, repo.AuditLogFilter{
		Page:       1,
		Limit:      100,
		ResourceID: &orderID,
	})
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

// UpdateStatus は手動遷移を行う。許すのは
// PAID → FULFILLED と、PLACED|PAID → CANCELLED だけ。
// PAIDへの遷移は署名検証済みWebhookの専権なのでここでは受け付けない。
// PAID注文のキャンセルは在庫を戻す（在庫は支払い時にしか引いていない）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor string, orderID int64, in AdminUpdateOrderStatusInput) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "admin"
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	switch newStatus {
	case model.OrderStatusFulfilled, model.OrderStatusCancelled:
		// OK
	case model.OrderStatusPaid:
		return NewHTTPError(http.StatusBadRequest, "paid is set by the payment webhook only")
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var beforeStatus model.OrderStatus
	var totalPence int64
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//Webhookと同じ行ロックを取って遷移を直列化する
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		// 終端ガード
		if o.Status.Terminal() {
			return NewHTTPError(http.StatusBadRequest, "cannot change closed order")
		}

		if newStatus == model.OrderStatusFulfilled && o.Status != model.OrderStatusPaid {
			return NewHTTPError(http.StatusBadRequest, "only paid orders can be fulfilled")
		}

		// PAIDをキャンセルするときだけ在庫戻し（PLACEDはまだ引いていない）
		if newStatus == model.OrderStatusCancelled && o.Status == model.OrderStatusPaid {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			for _, it := range items {
				p, err := r.Products().FindBySKU(ctx, it.SKU)
				if err == repo.ErrNotFound {
					logger.Warn("sku missing at cancellation, skipping restock",
						zap.Int64("order_id", orderID),
						zap.String("sku", it.SKU),
					)
					continue
				}
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}

				if err := r.Inventory().IncreaseStock(ctx, it.SKU, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if err := r.Inventory().CreateMovement(ctx, model.StockMovement{
					SKU:          it.SKU,
					OrderID:      orderID,
					Delta:        it.Quantity,
					ResultingQty: p.StockQty + it.Quantity,
					Reason:       model.StockReasonOrderCancelled,
				}); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		// ステータス更新
		beforeStatus = o.Status
		totalPence = o.TotalPence
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 監査ログ
		beforeJSON := `{"status":"` + string(beforeStatus) + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		changed = true
		return nil
	})

	if err != nil {
		return err
	}

	if changed {
		evtType := events.EventOrderCancelled
		if newStatus == model.OrderStatusFulfilled {
			evtType = events.EventOrderFulfilled
		}
		u.pub.Publish(ctx, events.OrderEvent{
			Type:       evtType,
			OrderID:    orderID,
			TotalPence: totalPence,
			OccurredAt: time.Now().Unix(),
		})
	}

	return nil
}

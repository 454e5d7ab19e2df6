package gateway

import (
	"context"
	"errors"
)

var (
	//APIキーやWebhookシークレットが未設定。
	ErrMisconfigured = errors.New("payment gateway misconfigured")
	//接続失敗・タイムアウトなどプロバイダに届かない状態。
	ErrUnavailable = errors.New("payment gateway unavailable")
	//Webhook署名の検証失敗。
	ErrInvalidSignature = errors.New("invalid webhook signature")
	//Webhookボディが読めない。
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

type LineItem struct {
	Name           string
	UnitPricePence int64
	Quantity       int64
}

type CreateSessionRequest struct {
	OrderID    int64
	Email      string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	SessionID       string
	PaymentIntentID string
	RedirectURL     string
}

// 外部決済プロバイダとの境界。テストではダブルに差し替える。
type Client interface {
	//注文のチェックアウトセッションを作成する。ネットワークI/Oを伴うのでタイムアウト必須。
	CreateSession(ctx context.Context, req CreateSessionRequest) (CheckoutSession, error)

	//Webhookの署名を検証してイベントに変換する。シークレット未設定は検証失敗ではなくErrMisconfigured。
	VerifyEvent(payload []byte, sigHeader string) (Event, error)
}

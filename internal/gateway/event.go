package gateway

import "encoding/json"

// 支払い完了イベント。これ以外のtypeは無視してよい。
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Webhookイベント。typeごとのタグ付きユニオン。
// 未知のtypeはSessionがnilのまま返る（握りつぶしてACKする）。
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSessionCompleted
}

// checkout.session.completed のペイロード。
type CheckoutSessionCompleted struct {
	SessionID       string
	PaymentIntentID string
	//metadataのorder_id。無いことも、壊れていることもある。
	OrderID string
}

type rawEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			PaymentIntent     string            `json:"payment_intent"`
			ClientReferenceID string            `json:"client_reference_id"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func parseEvent(payload []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, ErrInvalidPayload
	}

	evt := Event{ID: raw.ID, Type: raw.Type}

	if raw.Type == EventCheckoutSessionCompleted {
		orderID := raw.Data.Object.Metadata["order_id"]
		if orderID == "" {
			//metadataが無い古いセッションはclient_reference_idにフォールバック
			orderID = raw.Data.Object.ClientReferenceID
		}
		evt.Session = &CheckoutSessionCompleted{
			SessionID:       raw.Data.Object.ID,
			PaymentIntentID: raw.Data.Object.PaymentIntent,
			OrderID:         orderID,
		}
	}

	return evt, nil
}

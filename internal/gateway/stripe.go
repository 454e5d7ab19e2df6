package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultStripeBaseURL = "https://api.stripe.com"
	//署名タイムスタンプの許容ずれ
	signatureTolerance = 5 * time.Minute
)

// StripeClient はStripe Checkout互換のHTTP実装。
type StripeClient struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client

	//テストで差し替える
	now func() time.Time
}

type StripeClientOption func(*StripeClient)

func WithBaseURL(u string) StripeClientOption {
	return func(c *StripeClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithClock(now func() time.Time) StripeClientOption {
	return func(c *StripeClient) { c.now = now }
}

func NewStripeClient(secretKey, webhookSecret string, timeout time.Duration, opts ...StripeClientOption) *StripeClient {
	c := &StripeClient{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       defaultStripeBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type stripeSessionResponse struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	URL           string `json:"url"`
}

func (c *StripeClient) CreateSession(ctx context.Context, req CreateSessionRequest) (CheckoutSession, error) {
	if c.secretKey == "" {
		return CheckoutSession{}, ErrMisconfigured
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	//order_idは照合用に2か所へ入れる
	form.Set("client_reference_id", strconv.FormatInt(req.OrderID, 10))
	form.Set("metadata[order_id]", strconv.FormatInt(req.OrderID, 10))
	if req.Email != "" {
		form.Set("customer_email", req.Email)
	}

	for i, li := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", req.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.UnitPricePence, 10))
		form.Set(prefix+"[price_data][product_data][name]", li.Name)
		form.Set(prefix+"[quantity]", strconv.FormatInt(li.Quantity, 10))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		//タイムアウトもここに落ちる
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return CheckoutSession{}, ErrMisconfigured
	}
	if resp.StatusCode != http.StatusOK {
		return CheckoutSession{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body stripeSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return CheckoutSession{
		SessionID:       body.ID,
		PaymentIntentID: body.PaymentIntent,
		RedirectURL:     body.URL,
	}, nil
}

// VerifyEvent はStripe-Signatureヘッダ（t=...,v1=...）を検証する。
// 署名対象は "t.payload"、HMAC-SHA256。
func (c *StripeClient) VerifyEvent(payload []byte, sigHeader string) (Event, error) {
	if c.webhookSecret == "" {
		return Event{}, ErrMisconfigured
	}

	ts, sigs := parseSignatureHeader(sigHeader)
	if ts == 0 || len(sigs) == 0 {
		return Event{}, ErrInvalidSignature
	}

	//リプレイ対策：古すぎる署名は拒否
	age := c.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return Event{}, ErrInvalidSignature
	}

	expected := computeSignature(c.webhookSecret, ts, payload)
	ok := false
	for _, s := range sigs {
		if hmac.Equal([]byte(expected), []byte(s)) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, ErrInvalidSignature
	}

	return parseEvent(payload)
}

// SignPayload はテストや内部リトライ用に有効な署名ヘッダを作る。
func SignPayload(secret string, t time.Time, payload []byte) string {
	ts := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(secret, ts, payload))
}

func computeSignature(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(h string) (int64, []string) {
	var ts int64
	var sigs []string

	for _, part := range strings.Split(h, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err == nil {
				ts = v
			}
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	return ts, sigs
}

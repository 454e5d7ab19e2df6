package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/TGOSS1984/ashen-emporium/internal/cart"
	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/events"
	"github.com/TGOSS1984/ashen-emporium/internal/gateway"
	repo "github.com/TGOSS1984/ashen-emporium/internal/repository"
)

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposStub struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
}

func (r *TxReposStub) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposStub) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposStub) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposStub) Products() repo.ProductRepository     { return r.products }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, p repo.PaymentDetails) error {
	args := m.Called(ctx, orderID, p)
	return args.Error(0)
}

func (m *OrderRepoMock) SavePaymentSession(ctx context.Context, orderID int64, sessionID, paymentIntentID, sessionURL string) error {
	args := m.Called(ctx, orderID, sessionID, paymentIntentID, sessionURL)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecrementClamped(ctx context.Context, sku string, qty int64) (int64, bool, error) {
	args := m.Called(ctx, sku, qty)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, sku string, qty int64) error {
	args := m.Called(ctx, sku, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateMovement(ctx context.Context, mv model.StockMovement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListActive(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindBySKU(ctx context.Context, sku string) (model.Product, error) {
	args := m.Called(ctx, sku)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// Cart / Gateway / Publisher doubles
// =====================

type CartStoreMock struct{ mock.Mock }

func (m *CartStoreMock) Snapshot(ctx context.Context, sessionID string) ([]cart.Line, error) {
	args := m.Called(ctx, sessionID)
	lines, _ := args.Get(0).([]cart.Line)
	return lines, args.Error(1)
}

func (m *CartStoreMock) Add(ctx context.Context, sessionID string, productID int64, qty int64) error {
	args := m.Called(ctx, sessionID, productID, qty)
	return args.Error(0)
}

func (m *CartStoreMock) SetQty(ctx context.Context, sessionID string, productID int64, qty int64) error {
	args := m.Called(ctx, sessionID, productID, qty)
	return args.Error(0)
}

func (m *CartStoreMock) Remove(ctx context.Context, sessionID string, productID int64) error {
	args := m.Called(ctx, sessionID, productID)
	return args.Error(0)
}

func (m *CartStoreMock) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// GatewayStub は関数フィールドで差し替える軽量ダブル
type GatewayStub struct {
	CreateSessionFn func(ctx context.Context, req gateway.CreateSessionRequest) (gateway.CheckoutSession, error)
	VerifyEventFn   func(payload []byte, sigHeader string) (gateway.Event, error)

	mu            sync.Mutex
	CreateCalls   int
	VerifiedCalls int
}

func (g *GatewayStub) CreateSession(ctx context.Context, req gateway.CreateSessionRequest) (gateway.CheckoutSession, error) {
	g.mu.Lock()
	g.CreateCalls++
	g.mu.Unlock()
	return g.CreateSessionFn(ctx, req)
}

func (g *GatewayStub) VerifyEvent(payload []byte, sigHeader string) (gateway.Event, error) {
	g.mu.Lock()
	g.VerifiedCalls++
	g.mu.Unlock()
	return g.VerifyEventFn(payload, sigHeader)
}

// PublisherRecorder は発行されたイベントを記録するだけ
type PublisherRecorder struct {
	mu     sync.Mutex
	Events []events.OrderEvent
}

func (p *PublisherRecorder) Publish(ctx context.Context, evt events.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evt)
}

func (p *PublisherRecorder) Close() error { return nil }

func (p *PublisherRecorder) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}

package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"lumina/internal/config"
	"lumina/internal/domain/model"
	"lumina/internal/infra/cartstore"
	repo "lumina/internal/repository"
	"lumina/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

var testCfg = config.Config{JWTSecret: testSecret, FEURL: "http://localhost:5173"}

func bearer(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"role":  string(role),
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newRedisCartStore(t *testing.T) *cartstore.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cartstore.NewRedisStore(client, time.Hour)
}

// メモリ上の商品リポジトリ
type fakeProducts struct {
	mu     sync.Mutex
	byID   map[int64]model.Product
	nextID int64
}

func newFakeProducts(seed ...model.Product) *fakeProducts {
	f := &fakeProducts{byID: map[int64]model.Product{}, nextID: 100}
	for _, p := range seed {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) ListPublic(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.byID {
		if p.IsActive && strings.Contains(p.Name, q.Q) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProducts) FindByID(_ context.Context, id int64) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, p model.Product) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Slug == p.Slug {
			return model.Product{}, repo.ErrConflict
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, p model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.byID[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = old.Stock
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProducts) SoftDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// 在庫は商品リポジトリを直接書き換える
type fakeInventory struct{ products *fakeProducts }

func (f fakeInventory) SetStock(_ context.Context, productID int64, newStock int64) error {
	f.products.mu.Lock()
	defer f.products.mu.Unlock()
	p, ok := f.products.byID[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	f.products.byID[productID] = p
	return nil
}

func (f fakeInventory) DecreaseStockIfEnough(context.Context, int64, int64) (bool, error) {
	return true, nil
}

func (f fakeInventory) IncreaseStock(context.Context, int64, int64) error { return nil }

type fakeAudit struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, l model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeAudit) List(_ context.Context, _ repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog{}, f.logs...), int64(len(f.logs)), nil
}

type fakeProfiles struct {
	mu    sync.Mutex
	saved map[int64]model.Address
}

func (f *fakeProfiles) FindByUserID(context.Context, int64) (model.UserProfile, error) {
	return model.UserProfile{}, repo.ErrNotFound
}

func (f *fakeProfiles) FindByUserIDs(context.Context, []int64) ([]model.UserProfile, error) {
	return []model.UserProfile{}, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p model.UserProfile) (model.UserProfile, error) {
	return p, nil
}

func (f *fakeProfiles) SaveShippingAddress(_ context.Context, userID int64, addr model.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[int64]model.Address{}
	}
	f.saved[userID] = addr
	return nil
}

// 注文作成の差し替え
type placerFunc func(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (usecase.OrderOutput, error)

func (f placerFunc) PlaceOrder(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (usecase.OrderOutput, error) {
	return f(ctx, userID, in)
}

type fixedID string

func (f fixedID) NewID() string { return string(f) }

type geocoderStub struct {
	search  []model.Address
	reverse model.Address
	err     error
}

func (g geocoderStub) Search(context.Context, string) ([]model.Address, error) {
	return g.search, g.err
}

func (g geocoderStub) Reverse(context.Context, float64, float64) (model.Address, error) {
	return g.reverse, g.err
}

// メモリ上の注文リポジトリ
type fakeOrders struct {
	mu   sync.Mutex
	byID map[int64]model.Order
}

func newFakeOrders(seed ...model.Order) *fakeOrders {
	f := &fakeOrders{byID: map[int64]model.Order{}}
	for _, o := range seed {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) status(id int64) model.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Status
}

func (f *fakeOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) ListByUserID(_ context.Context, userID int64, _ int, _ int) ([]model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Order{}
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) Create(context.Context, model.Order) (int64, error) {
	return 0, repo.ErrConflict
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	f.byID[id] = o
	return nil
}

func (f *fakeOrders) TransitionStatus(_ context.Context, id int64, from, to model.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	f.byID[id] = o
	return true, nil
}

func (f *fakeOrders) FindByIdempotencyKey(context.Context, int64, string) (model.Order, bool, error) {
	return model.Order{}, false, nil
}

func (f *fakeOrders) ListAdmin(_ context.Context, q repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Order{}
	for _, o := range f.byID {
		if q.Status == "" || string(o.Status) == q.Status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) SummarizeCustomers(context.Context, int, int) ([]repo.CustomerSummary, int64, error) {
	return []repo.CustomerSummary{}, 0, nil
}

type fakeOrderItems struct {
	byOrder map[int64][]model.OrderItem
}

func (f fakeOrderItems) CreateBulk(context.Context, int64, []model.OrderItem) error { return nil }

func (f fakeOrderItems) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	return f.byOrder[orderID], nil
}

// WithinTxはそのまま同じリポジトリで実行する
type fakeTx struct {
	orders   *fakeOrders
	items    fakeOrderItems
	products *fakeProducts
	audit    *fakeAudit
}

func (f fakeTx) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	return fn(f)
}

func (f fakeTx) Orders() repo.OrderRepository         { return f.orders }
func (f fakeTx) OrderItems() repo.OrderItemRepository { return f.items }
func (f fakeTx) Inventory() repo.InventoryRepository  { return fakeInventory{products: f.products} }
func (f fakeTx) Products() repo.ProductRepository     { return f.products }
func (f fakeTx) AuditLogs() repo.AuditLogRepository   { return f.audit }

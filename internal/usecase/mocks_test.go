package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos
// =====================

// txManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type txManagerMock struct {
	Repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

type txReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposMock) Products() repo.ProductRepository     { return r.products }
func (r *txReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *orderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *orderRepoMock) TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *orderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) SummarizeCustomers(ctx context.Context, page int, limit int) ([]repo.CustomerSummary, int64, error) {
	args := m.Called(ctx, page, limit)
	rows, _ := args.Get(0).([]repo.CustomerSummary)
	return rows, args.Get(1).(int64), args.Error(2)
}

type orderItemRepoMock struct{ mock.Mock }

func (m *orderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *orderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type inventoryRepoMock struct{ mock.Mock }

func (m *inventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *inventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *inventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type auditRepoMock struct{ mock.Mock }

func (m *auditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *auditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

type profileRepoMock struct{ mock.Mock }

func (m *profileRepoMock) FindByUserID(ctx context.Context, userID int64) (model.UserProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(model.UserProfile)
	return p, args.Error(1)
}

func (m *profileRepoMock) FindByUserIDs(ctx context.Context, userIDs []int64) ([]model.UserProfile, error) {
	args := m.Called(ctx, userIDs)
	list, _ := args.Get(0).([]model.UserProfile)
	return list, args.Error(1)
}

func (m *profileRepoMock) Upsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.UserProfile)
	return out, args.Error(1)
}

func (m *profileRepoMock) SaveShippingAddress(ctx context.Context, userID int64, addr model.Address) error {
	args := m.Called(ctx, userID, addr)
	return args.Error(0)
}

// =====================
// fakes
// =====================

// メモリ上のカート保存先
type memCartStore struct {
	mu      sync.Mutex
	carts   map[string]model.Cart
	saves   int
	loadErr error
	saveErr error
	delErr  error
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: map[string]model.Cart{}}
}

func (s *memCartStore) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return model.Cart{}, s.loadErr
	}
	c := s.carts[sessionID]
	c.Lines = append([]model.CartLine(nil), c.Lines...)
	return c, nil
}

func (s *memCartStore) Save(ctx context.Context, sessionID string, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.carts[sessionID] = cart
	return nil
}

func (s *memCartStore) Update(ctx context.Context, sessionID string, fn func(cart *model.Cart) error) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return model.Cart{}, s.loadErr
	}
	c := s.carts[sessionID]
	c.Lines = append([]model.CartLine(nil), c.Lines...)
	if err := fn(&c); err != nil {
		if errors.Is(err, repo.ErrCartUnchanged) {
			return c, nil
		}
		return model.Cart{}, err
	}
	if s.saveErr != nil {
		return model.Cart{}, s.saveErr
	}
	s.saves++
	s.carts[sessionID] = c
	return c, nil
}

func (s *memCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.carts, sessionID)
	return nil
}

func (s *memCartStore) get(sessionID string) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[sessionID]
}

type geocoderMock struct{ mock.Mock }

func (m *geocoderMock) Search(ctx context.Context, query string) ([]model.Address, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *geocoderMock) Reverse(ctx context.Context, lat, lng float64) (model.Address, error) {
	args := m.Called(ctx, lat, lng)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

type orderPlacerFunc func(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error)

func (f orderPlacerFunc) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	return f(ctx, userID, in)
}

type validatorFunc func(ctx context.Context, in CheckoutInput) error

func (f validatorFunc) ValidateCheckout(ctx context.Context, in CheckoutInput) error {
	return f(ctx, in)
}

// 連番のID
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "key-" + strconv.Itoa(g.n)
}

package repository

import (
	"context"
	"time"

	"lumina/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 顧客ごとの注文集計
type CustomerSummary struct {
	UserID      int64
	OrderCount  int64
	TotalSpent  int64
	LastOrderAt time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	// idempotency_keyが既にあればErrConflict
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// 現在のステータスがfromのときだけtoに変える。変わらなければfalse。
	TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//顧客一覧（DB側で集計）
	SummarizeCustomers(ctx context.Context, page int, limit int) ([]CustomerSummary, int64, error)
}

package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"
)

type OrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	productRepo repo.ProductRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	productRepo repo.ProductRepository,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		orders:      orders,
		orderItems:  orderItems,
		productRepo: productRepo,
	}
}

// 注文作成の入力。明細はカートの内容。
type PlaceOrderInput struct {
	Lines          []model.CartLine
	ShippingFee    int64
	Discount       int64
	Address        model.Address
	PaymentMethod  model.PaymentMethod
	FirstName      string
	LastName       string
	Phone          string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID        int64             `json:"product_id"`
	Name             string            `json:"name"`
	Image            string            `json:"image,omitempty"`
	Price            int64             `json:"price"`
	Quantity         int64             `json:"quantity"`
	Subtotal         int64             `json:"subtotal"`
	SelectedVariants map[string]string `json:"selected_variants,omitempty"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	PaymentMethod   string            `json:"payment_method"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Phone           string            `json:"phone"`
	ShippingAddress model.Address     `json:"shipping_address"`
	Subtotal        int64             `json:"subtotal"`
	ShippingFee     int64             `json:"shipping_fee"`
	Discount        int64             `json:"discount"`
	TotalPrice      int64             `json:"total_price"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
}

// PlaceOrder は注文を1トランザクションで作成する。
// 同じ(user, idempotency_key)なら既存の注文を返す。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Lines) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if !in.PaymentMethod.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items, nil)
			return nil
		}

		//商品チェックとスナップショット
		orderItems := make([]model.OrderItem, 0, len(in.Lines))
		var subtotal int64
		for _, l := range in.Lines {
			if l.Quantity < 1 {
				return NewHTTPError(http.StatusBadRequest, "invalid quantity")
			}
			p, err := r.Products().FindByID(ctx, l.ProductID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: l.Name,
				UnitPriceSnapshot:   l.UnitPrice,
				Quantity:            l.Quantity,
				VariantsSnapshot:    l.SelectedVariants,
			})
			subtotal += l.Subtotal()
		}

		//金額は作成時に1回だけ計算
		order := model.Order{
			UserID:          userID,
			Status:          model.OrderStatusProcessing,
			PaymentMethod:   in.PaymentMethod,
			FirstName:       strings.TrimSpace(in.FirstName),
			LastName:        strings.TrimSpace(in.LastName),
			Phone:           strings.TrimSpace(in.Phone),
			ShippingAddress: in.Address,
			Subtotal:        subtotal,
			ShippingFee:     in.ShippingFee,
			Discount:        in.Discount,
			TotalPrice:      model.GrandTotal(subtotal, in.ShippingFee, in.Discount),
			IdempotencyKey:  key,
		}

		// ヘッダを先に入れる（同時に同じキーが来たらここで止まる）
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrConflict) {
			ex, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil || !found {
				return NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			items, err := r.OrderItems().ListByOrderID(ctx, ex.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(ex, items, nil)
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫を確定時にチェックして減らす
		for _, it := range orderItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "out of stock")
			}
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(created, orderItems, nil)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 自分の注文一覧（新しい順）。
// 表示用に商品をまとめて取得し、削除済みなら保存した名前を使う。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	itemsByOrder := make(map[int64][]model.OrderItem, len(orders))
	productIDs := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		itemsByOrder[o.ID] = items
		for _, it := range items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				productIDs = append(productIDs, it.ProductID)
			}
		}
	}

	live, err := u.liveProducts(ctx, productIDs)
	if err != nil {
		return OrderListOutput{}, err
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, itemsByOrder[o.ID], live))
	}
	return OrderListOutput{Items: outs, Total: total}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.findOwnOrder(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	live, err := u.liveProducts(ctx, ids)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, items, live), nil
}

// 返品申請。Deliveredのときだけ（判定はDBの条件付き更新）。
func (u *OrderUsecase) RequestReturn(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.findOwnOrder(ctx, userID, orderID); err != nil {
		return OrderOutput{}, err
	}

	changed, err := u.orders.TransitionStatus(ctx, orderID, model.OrderStatusDelivered, model.OrderStatusReturnRequested)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !changed {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "return not allowed")
	}

	return u.GetMyOrderDetail(ctx, userID, orderID)
}

func (u *OrderUsecase) findOwnOrder(ctx context.Context, userID int64, orderID int64) (model.Order, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return o, nil
}

// 商品をIN句でまとめて取得する
func (u *OrderUsecase) liveProducts(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	products, err := u.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	m := make(map[int64]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m, nil
}

// liveがnilなら保存したスナップショットだけで組み立てる。
// 価格は常にスナップショット。
func toOrderOutput(o model.Order, items []model.OrderItem, live map[int64]model.Product) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		item := OrderItemOutput{
			ProductID:        it.ProductID,
			Name:             it.ProductNameSnapshot,
			Price:            it.UnitPriceSnapshot,
			Quantity:         it.Quantity,
			Subtotal:         it.UnitPriceSnapshot * it.Quantity,
			SelectedVariants: it.VariantsSnapshot,
		}
		if p, ok := live[it.ProductID]; ok {
			item.Name = p.Name
			item.Image = p.Image
		}
		outItems = append(outItems, item)
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		FirstName:       o.FirstName,
		LastName:        o.LastName,
		Phone:           o.Phone,
		ShippingAddress: o.ShippingAddress,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Discount:        o.Discount,
		TotalPrice:      o.TotalPrice,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

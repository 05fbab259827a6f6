package model

import "time"

type OrderStatus string

const (
	OrderStatusProcessing      OrderStatus = "Processing"
	OrderStatusShipped         OrderStatus = "Shipped"
	OrderStatusDelivered       OrderStatus = "Delivered"
	OrderStatusCancelled       OrderStatus = "Cancelled"
	OrderStatusReturnRequested OrderStatus = "ReturnRequested"
	OrderStatusReturned        OrderStatus = "Returned"
	OrderStatusReturnRejected  OrderStatus = "ReturnRejected"
)

// 管理画面から許可する遷移。
// Delivered→ReturnRequested は購入者の返品申請のみ。
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:         {OrderStatusDelivered},
	OrderStatusReturnRequested: {OrderStatusReturned, OrderStatusReturnRejected},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusReturnRequested, OrderStatusReturned, OrderStatusReturnRejected:
		return true
	}
	return false
}

// CanAdminTransitionは管理者による from→to の変更が許可されているか
func CanAdminTransition(from, to OrderStatus) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanRequestReturnは返品申請できるか（Deliveredのときだけ）
func (s OrderStatus) CanRequestReturn() bool {
	return s == OrderStatusDelivered
}

type PaymentMethod string

const (
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentCashOnDelivery, PaymentCard:
		return true
	}
	return false
}

// 注文ヘッダ。金額は作成時に1回だけ計算して保存する。
type Order struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(30);not null" json:"payment_method"`

	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`

	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	Discount    int64 `gorm:"not null" json:"discount"`
	TotalPrice  int64 `gorm:"not null" json:"total_price"`

	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

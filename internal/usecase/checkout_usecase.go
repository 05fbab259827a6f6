package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"

	"go.uber.org/zap"
)

// チェックアウト1回分の状態
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "Idle"
	CheckoutSubmitting CheckoutState = "Submitting"
	CheckoutSuccess    CheckoutState = "Success"
	CheckoutFailed     CheckoutState = "Failed"
)

type IDGenerator interface {
	NewID() string
}

type CheckoutValidator interface {
	ValidateCheckout(ctx context.Context, in CheckoutInput) error
}

// 注文作成（OrderUsecaseが実装）
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error)
}

type CheckoutConfig struct {
	Timeout     time.Duration
	ShippingFee int64
	Discount    int64
}

type CheckoutInput struct {
	FirstName     string
	LastName      string
	Phone         string
	Address       model.Address
	PaymentMethod string
	// 成功したらプロフィールに配送先を保存する
	SaveAddress    bool
	IdempotencyKey string
}

type CheckoutResult struct {
	State   CheckoutState   `json:"state"`
	History []CheckoutState `json:"history"`
	Order   *OrderOutput    `json:"order,omitempty"`
}

type CheckoutUsecase struct {
	carts     repo.CartStore
	orders    OrderPlacer
	profiles  repo.ProfileRepository
	validator CheckoutValidator
	ids       IDGenerator
	cfg       CheckoutConfig
	log       *zap.Logger
}

func NewCheckoutUsecase(
	carts repo.CartStore,
	orders OrderPlacer,
	profiles repo.ProfileRepository,
	validator CheckoutValidator,
	ids IDGenerator,
	cfg CheckoutConfig,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		carts:     carts,
		orders:    orders,
		profiles:  profiles,
		validator: validator,
		ids:       ids,
		cfg:       cfg,
		log:       log,
	}
}

// 通った状態を順に記録する
type checkoutAttempt struct {
	history []CheckoutState
}

func (a *checkoutAttempt) enter(s CheckoutState) {
	a.history = append(a.history, s)
}

func (a *checkoutAttempt) result(order *OrderOutput) CheckoutResult {
	return CheckoutResult{
		State:   a.history[len(a.history)-1],
		History: a.history,
		Order:   order,
	}
}

type placeResult struct {
	out OrderOutput
	err error
}

// Submit はカートの内容で注文を作る。
// 失敗時はカートを残す。タイムアウト後も注文作成自体は続くことがある。
func (u *CheckoutUsecase) Submit(ctx context.Context, userID int64, sessionID string, in CheckoutInput) (CheckoutResult, error) {
	attempt := &checkoutAttempt{}
	attempt.enter(CheckoutIdle)

	if userID <= 0 {
		return attempt.result(nil), NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return attempt.result(nil), NewHTTPError(http.StatusBadRequest, "cart session required")
	}

	cart, err := u.carts.Load(ctx, sessionID)
	if err != nil {
		u.log.Error("load cart failed", zap.String("session", sessionID), zap.Error(err))
		return attempt.result(nil), NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	// 空のカートはSubmittingに入らない
	if cart.IsEmpty() {
		return attempt.result(nil), NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	if strings.TrimSpace(in.PaymentMethod) == "" {
		in.PaymentMethod = string(model.PaymentBankTransfer)
	}
	if err := u.validator.ValidateCheckout(ctx, in); err != nil {
		attempt.enter(CheckoutFailed)
		return attempt.result(nil), NewHTTPError(http.StatusBadRequest, err.Error())
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = u.ids.NewID()
	}

	req := PlaceOrderInput{
		Lines:         cart.Lines,
		ShippingFee:   u.cfg.ShippingFee,
		Discount:      u.cfg.Discount,
		Address:       in.Address,
		PaymentMethod: model.PaymentMethod(in.PaymentMethod),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		// 同じキーでの再送は同じ注文になる
		IdempotencyKey: key,
	}

	attempt.enter(CheckoutSubmitting)

	// 注文作成とタイムアウトを競争させる。
	// 呼び出し元が先に戻っても作成は止めない。
	done := make(chan placeResult, 1)
	go func() {
		out, err := u.orders.PlaceOrder(context.WithoutCancel(ctx), userID, req)
		done <- placeResult{out: out, err: err}
	}()

	timer := time.NewTimer(u.cfg.Timeout)
	defer timer.Stop()

	var res placeResult
	select {
	case res = <-done:
	case <-timer.C:
		u.log.Warn("checkout timed out",
			zap.Int64("user_id", userID),
			zap.String("idempotency_key", key),
			zap.Duration("timeout", u.cfg.Timeout),
		)
		attempt.enter(CheckoutFailed)
		return attempt.result(nil), NewHTTPError(http.StatusGatewayTimeout, "checkout timed out")
	case <-ctx.Done():
		attempt.enter(CheckoutFailed)
		return attempt.result(nil), NewHTTPError(http.StatusRequestTimeout, "checkout cancelled")
	}

	if res.err != nil {
		attempt.enter(CheckoutFailed)
		if he, ok := AsHTTPError(res.err); ok {
			return attempt.result(nil), he
		}
		u.log.Error("place order failed", zap.Int64("user_id", userID), zap.Error(res.err))
		return attempt.result(nil), NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// ここから先の失敗はチェックアウトを失敗にしない
	if err := u.carts.Delete(ctx, sessionID); err != nil {
		u.log.Warn("clear cart failed", zap.String("session", sessionID), zap.Error(err))
	}
	if in.SaveAddress {
		if err := u.profiles.SaveShippingAddress(ctx, userID, in.Address); err != nil {
			u.log.Warn("save shipping address failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	u.log.Info("checkout completed",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", res.out.ID),
		zap.Int64("total_price", res.out.TotalPrice),
	)

	attempt.enter(CheckoutSuccess)
	out := res.out
	return attempt.result(&out), nil
}


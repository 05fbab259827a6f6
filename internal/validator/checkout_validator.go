package validator

import (
	"context"
	"errors"
	"strings"

	"lumina/internal/domain/model"
	"lumina/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// 支払い方法が不正
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
)

// 必須項目の不足。不足した項目名を持つ。
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrInvalidInput
}

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// チェックアウトの入力を検証（外部への通信より前）
func (v *checkoutValidator) ValidateCheckout(ctx context.Context, in usecase.CheckoutInput) error {
	var missing []string

	// 必須チェック
	if strings.TrimSpace(in.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(in.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(in.Address.Line1) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(in.Address.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(in.Address.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	// 座標は両方あるか両方ないか
	if (in.Address.Lat == nil) != (in.Address.Lng == nil) {
		return ErrInvalidInput
	}

	if !model.PaymentMethod(in.PaymentMethod).Valid() {
		return ErrInvalidPaymentMethod
	}

	return nil
}

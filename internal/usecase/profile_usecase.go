package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"
)

type ProfileDTO struct {
	UserID          int64          `json:"user_id"`
	Email           string         `json:"email"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Phone           string         `json:"phone"`
	ShippingAddress *model.Address `json:"shipping_address,omitempty"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// ProfileUsecase はログイン中ユーザーのプロフィール。
// 認証トークンとは別に保存する。
type ProfileUsecase struct {
	profiles repo.ProfileRepository
}

func NewProfileUsecase(profiles repo.ProfileRepository) *ProfileUsecase {
	return &ProfileUsecase{profiles: profiles}
}

// まだ保存されていなければ空のプロフィール（emailはトークンの値）
func (u *ProfileUsecase) Get(ctx context.Context, userID int64, email string) (ProfileDTO, error) {
	if userID <= 0 {
		return ProfileDTO{}, ErrUnauthorized
	}

	p, err := u.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProfileDTO{UserID: userID, Email: email}, nil
	}
	if err != nil {
		return ProfileDTO{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return toProfileDTO(p), nil
}

func (u *ProfileUsecase) Update(ctx context.Context, userID int64, email string, req ProfileUpdateRequest) (ProfileDTO, error) {
	if userID <= 0 {
		return ProfileDTO{}, ErrUnauthorized
	}

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	phone := strings.TrimSpace(req.Phone)
	if len(first) > 100 || len(last) > 100 || len(phone) > 30 {
		return ProfileDTO{}, ErrValidation
	}

	p, err := u.profiles.Upsert(ctx, model.UserProfile{
		UserID:    userID,
		Email:     strings.TrimSpace(email),
		FirstName: first,
		LastName:  last,
		Phone:     phone,
	})
	if err != nil {
		return ProfileDTO{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return toProfileDTO(p), nil
}

// 既定の配送先を保存（チェックアウト外から）
func (u *ProfileUsecase) SaveShippingAddress(ctx context.Context, userID int64, addr model.Address) (ProfileDTO, error) {
	if userID <= 0 {
		return ProfileDTO{}, ErrUnauthorized
	}
	if strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.City) == "" || strings.TrimSpace(addr.PostalCode) == "" {
		return ProfileDTO{}, ErrValidation
	}
	if (addr.Lat == nil) != (addr.Lng == nil) {
		return ProfileDTO{}, ErrValidation
	}

	if err := u.profiles.SaveShippingAddress(ctx, userID, addr); err != nil {
		return ProfileDTO{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	p, err := u.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return ProfileDTO{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return toProfileDTO(p), nil
}

func toProfileDTO(p model.UserProfile) ProfileDTO {
	dto := ProfileDTO{
		UserID:    p.UserID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}
	if !p.ShippingAddress.IsZero() {
		addr := p.ShippingAddress
		dto.ShippingAddress = &addr
	}
	return dto
}

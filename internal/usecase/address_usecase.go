package usecase

import (
	"context"
	"fmt"
	"strings"

	"lumina/internal/domain/model"

	"go.uber.org/zap"
)

// 外部のジオコーディングAPI
type Geocoder interface {
	Search(ctx context.Context, query string) ([]model.Address, error)
	Reverse(ctx context.Context, lat, lng float64) (model.Address, error)
}

// AddressUsecase は住所検索・地図からの住所解決。
// 外部APIの失敗は呼び出し側にエラーとして返さない。
type AddressUsecase struct {
	geocoder Geocoder
	log      *zap.Logger
}

func NewAddressUsecase(geocoder Geocoder, log *zap.Logger) *AddressUsecase {
	return &AddressUsecase{geocoder: geocoder, log: log}
}

// Searchは候補の住所を返す。空の入力や失敗時は空の一覧。
func (u *AddressUsecase) Search(ctx context.Context, query string) []model.Address {
	q := strings.TrimSpace(query)
	if q == "" {
		return []model.Address{}
	}

	list, err := u.geocoder.Search(ctx, q)
	if err != nil {
		u.log.Warn("address search failed", zap.String("query", q), zap.Error(err))
		return []model.Address{}
	}
	if list == nil {
		return []model.Address{}
	}
	return list
}

// Resolveは座標から住所を返す。
// 失敗時は座標の文字列を番地に入れた住所を返す。
func (u *AddressUsecase) Resolve(ctx context.Context, lat, lng float64) model.Address {
	addr, err := u.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		u.log.Warn("reverse geocoding failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return fallbackAddress(lat, lng)
	}
	return addr
}

func fallbackAddress(lat, lng float64) model.Address {
	return model.Address{
		Line1: fmt.Sprintf("%f, %f", lat, lng),
	}.WithCoordinates(model.Coordinates{Lat: lat, Lng: lng})
}

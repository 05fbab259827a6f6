package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidVariant = errors.New("invalid variant")

// 選択肢1つ（例: Storage=256GB）
type VariantOption struct {
	Value string `json:"value"`
	//基本価格への加算額
	PriceDelta int64 `json:"price_delta"`
}

// バリアント軸（例: Color, Storage）
type VariantAxis struct {
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int64          `gorm:"not null" json:"stock"`
	Image       string         `gorm:"type:text" json:"image"`
	Variants    []VariantAxis  `gorm:"type:jsonb;serializer:json" json:"variants"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PriceForは選択されたバリアントを検証して単価を返す。
// 未知の軸・選択肢はErrInvalidVariant。選ばれなかった軸は加算なし。
func (p Product) PriceFor(selected map[string]string) (int64, error) {
	price := p.Price
	for axisName, value := range selected {
		axis, ok := p.axis(axisName)
		if !ok {
			return 0, ErrInvalidVariant
		}
		opt, ok := axis.option(value)
		if !ok {
			return 0, ErrInvalidVariant
		}
		price += opt.PriceDelta
	}
	return price, nil
}

func (p Product) axis(name string) (VariantAxis, bool) {
	for _, a := range p.Variants {
		if a.Name == name {
			return a, true
		}
	}
	return VariantAxis{}, false
}

func (a VariantAxis) option(value string) (VariantOption, bool) {
	for _, o := range a.Options {
		if o.Value == value {
			return o, true
		}
	}
	return VariantOption{}, false
}

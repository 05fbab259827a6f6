package repository

import (
	"context"
	"errors"

	"lumina/internal/domain/model"
)

// Updateのfnが返すと、保存せずにそのままのカートを返す
var ErrCartUnchanged = errors.New("cart unchanged")

// カートセッションの保存先。
// カートはDBのテーブルではなく、セッション単位の丸ごと保存。
type CartStore interface {
	// 無いセッションは空のカート
	Load(ctx context.Context, sessionID string) (model.Cart, error)
	Save(ctx context.Context, sessionID string, cart model.Cart) error
	// 読んで・変えて・書くを1つの単位で行う。
	// 同じセッションへの同時更新で変更が失われない。
	Update(ctx context.Context, sessionID string, fn func(cart *model.Cart) error) (model.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

package repository

import (
	"context"

	"lumina/internal/domain/model"
)

// プロフィールの保存・取得
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.UserProfile, error)
	FindByUserIDs(ctx context.Context, userIDs []int64) ([]model.UserProfile, error)
	// 無ければ作成、あれば名前・電話を更新
	Upsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	// 配送先だけを更新（無ければ作成）
	SaveShippingAddress(ctx context.Context, userID int64, addr model.Address) error
}

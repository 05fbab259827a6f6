package repository

import (
	"context"

	"lumina/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileGormRepository struct {
	db *gorm.DB
}

func NewProfileGormRepository(db *gorm.DB) *ProfileGormRepository {
	return &ProfileGormRepository{db: db}
}

func (r *ProfileGormRepository) FindByUserID(ctx context.Context, userID int64) (model.UserProfile, error) {
	var p model.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return model.UserProfile{}, translateError(err)
	}
	return p, nil
}

func (r *ProfileGormRepository) FindByUserIDs(ctx context.Context, userIDs []int64) ([]model.UserProfile, error) {
	if len(userIDs) == 0 {
		return []model.UserProfile{}, nil
	}
	var list []model.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&list).Error; err != nil {
		return []model.UserProfile{}, err
	}
	return list, nil
}

// 名前・電話・メールだけを更新する（配送先は触らない）
func (r *ProfileGormRepository) Upsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "phone", "updated_at"}),
		}).
		Create(&p).Error
	if err != nil {
		return model.UserProfile{}, translateError(err)
	}
	return r.FindByUserID(ctx, p.UserID)
}

// 配送先だけを更新（無ければ作成）
func (r *ProfileGormRepository) SaveShippingAddress(ctx context.Context, userID int64, addr model.Address) error {
	p := model.UserProfile{UserID: userID, ShippingAddress: addr}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ship_line1", "ship_city", "ship_postal_code", "ship_lat", "ship_lng", "updated_at",
			}),
		}).
		Create(&p).Error
}

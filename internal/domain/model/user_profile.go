package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ユーザープロフィール。
// 認証セッションとは切り離して、専用テーブルで持つ。
type UserProfile struct {
	UserID    int64  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`

	//チェックアウト時に保存できる既定の配送先
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

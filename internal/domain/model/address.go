package model

// 座標
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// 配送先住所。注文に付いた後は変更しない。
type Address struct {
	//番地など
	Line1 string `gorm:"type:varchar(255)" json:"line1"`

	//市区町村
	City string `gorm:"type:varchar(255)" json:"city"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`

	//座標（地図から選んだ場合のみ）
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// WithCoordinatesは座標付きの住所を返す
func (a Address) WithCoordinates(c Coordinates) Address {
	lat, lng := c.Lat, c.Lng
	a.Lat = &lat
	a.Lng = &lng
	return a
}

// Coordinatesは座標があれば返す
func (a Address) Coordinates() *Coordinates {
	if a.Lat == nil || a.Lng == nil {
		return nil
	}
	return &Coordinates{Lat: *a.Lat, Lng: *a.Lng}
}

func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Lat == nil && a.Lng == nil
}

package model

import (
	"maps"
	"time"
)

// カートの明細。価格・名前は追加時点の値を持つ。
type CartLine struct {
	ProductID        int64             `json:"product_id"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"unit_price"`
	Quantity         int64             `json:"quantity"`
	SelectedVariants map[string]string `json:"selected_variants,omitempty"`
	Image            string            `json:"image,omitempty"`
}

// Subtotalは単価×数量
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * l.Quantity
}

// 同じ商品・同じバリアントなら同一明細
func (l CartLine) sameItem(other CartLine) bool {
	return l.ProductID == other.ProductID && maps.Equal(l.SelectedVariants, other.SelectedVariants)
}

// Cartはカートセッション1つ分の明細集合。
// DBには持たず、セッション単位で丸ごと保存する。
type Cart struct {
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Addは明細を追加する（同一商品・同一バリアントは数量加算）。
// 数量は最低1。上限はない。
func (c *Cart) Add(line CartLine, quantity int64) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Lines {
		if c.Lines[i].sameItem(line) {
			c.Lines[i].Quantity += quantity
			return
		}
	}
	line.Quantity = quantity
	c.Lines = append(c.Lines, line)
}

// Removeは商品の明細を削除する。無くてもエラーにしない。
func (c *Cart) Remove(productID int64) {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

// SetQuantityは数量を変更する。0以下は1にする（削除はRemove）。
// 変更した明細があればtrue。
func (c *Cart) SetQuantity(productID int64, n int64) bool {
	if n < 1 {
		n = 1
	}
	changed := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = n
			changed = true
		}
	}
	return changed
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// Totalは毎回計算する（キャッシュしない）
func (c Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// GrandTotalは小計+送料-割引。
// マイナスになってもそのまま返す。
func GrandTotal(subtotal, shippingFee, discount int64) int64 {
	return subtotal + shippingFee - discount
}

package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートはユーザーではなくカートセッションに紐づきます。
type CartUsecase struct {
	store       repo.CartStore
	productRepo repo.ProductRepository
	now         func() time.Time
}

func NewCartUsecase(store repo.CartStore, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		store:       store,
		productRepo: productRepo,
		now:         time.Now,
	}
}

type CartLineResponse struct {
	ProductID        int64             `json:"product_id"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"unit_price"`
	Quantity         int64             `json:"quantity"`
	Subtotal         int64             `json:"subtotal"`
	SelectedVariants map[string]string `json:"selected_variants,omitempty"`
	Image            string            `json:"image,omitempty"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
	Variants  map[string]string
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return toCartResponse(cart), nil
}

// AddToCart はカートに追加（同一商品・同一バリアントは数量加算）。
// 在庫はここでは見ない（注文確定時にチェック）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if err := requireSession(sessionID); err != nil {
		return CartResponse{}, err
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	unitPrice, err := p.PriceFor(in.Variants)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}

	var variants map[string]string
	if len(in.Variants) > 0 {
		variants = in.Variants
	}

	//価格・名前は追加時点の値
	line := model.CartLine{
		ProductID:        p.ID,
		Name:             p.Name,
		UnitPrice:        unitPrice,
		SelectedVariants: variants,
		Image:            p.Image,
	}
	return u.update(ctx, sessionID, func(cart *model.Cart) error {
		cart.Add(line, in.Quantity)
		return nil
	})
}

// 数量変更（1未満は1）。カートに無い商品なら何もしない。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	return u.update(ctx, sessionID, func(cart *model.Cart) error {
		if !cart.SetQuantity(productID, quantity) {
			return repo.ErrCartUnchanged
		}
		return nil
	})
}

// 商品の明細を削除（無くてもエラーにしない）
func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	return u.update(ctx, sessionID, func(cart *model.Cart) error {
		cart.Remove(productID)
		return nil
	})
}

func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	if err := u.store.Delete(ctx, sessionID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return nil
}

func (u *CartUsecase) load(ctx context.Context, sessionID string) (model.Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return model.Cart{}, err
	}
	cart, err := u.store.Load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return cart, nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return NewHTTPError(http.StatusBadRequest, "cart session required")
	}
	return nil
}

// 変更のたびに明細を丸ごと保存する。
// 読み込みから保存までをストア側で1つの更新にする。
func (u *CartUsecase) update(ctx context.Context, sessionID string, fn func(cart *model.Cart) error) (CartResponse, error) {
	if err := requireSession(sessionID); err != nil {
		return CartResponse{}, err
	}
	cart, err := u.store.Update(ctx, sessionID, func(cart *model.Cart) error {
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = u.now()
		return nil
	})
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return toCartResponse(cart), nil
}

func toCartResponse(cart model.Cart) CartResponse {
	lines := make([]CartLineResponse, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, CartLineResponse{
			ProductID:        l.ProductID,
			Name:             l.Name,
			UnitPrice:        l.UnitPrice,
			Quantity:         l.Quantity,
			Subtotal:         l.Subtotal(),
			SelectedVariants: l.SelectedVariants,
			Image:            l.Image,
		})
	}
	return CartResponse{Lines: lines, Total: cart.Total()}
}

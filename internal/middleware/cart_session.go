package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CtxCartSessionKey = "cart_session" // string
)

// カートセッションIDをcontextに入れる。
// 無い・UUIDでない場合は新しく発行して、レスポンスヘッダで返す。
func CartSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := c.Request().Header.Get(CartSessionHeader)
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
			}

			c.Set(CtxCartSessionKey, sid)
			c.Response().Header().Set(CartSessionHeader, sid)

			return next(c)
		}
	}
}

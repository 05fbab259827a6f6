package handler

import (
	"net/http"

	"lumina/internal/config"
	"lumina/internal/domain/model"
	"lumina/internal/middleware"
	"lumina/internal/usecase"

	"github.com/labstack/echo/v4"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Phone         string        `json:"phone"`
	Address       model.Address `json:"address"`
	PaymentMethod string        `json:"payment_method"`
	SaveAddress   bool          `json:"save_address"`
}

// 失敗時もどの状態まで進んだかを返す
type CheckoutResponse struct {
	usecase.CheckoutResult
	Error string `json:"error,omitempty"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg.JWTSecret))
	g.Use(middleware.CartSession())

	g.POST("", h.submit)
}

func (h *CheckoutHandler) submit(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get(IdempotencyKeyHeader)

	res, err := h.uc.Submit(c.Request().Context(), userID, getCartSession(c), usecase.CheckoutInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		SaveAddress:    req.SaveAddress,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error"
		if he, ok := usecase.AsHTTPError(err); ok {
			status, msg = he.Status, he.Message
		}
		return c.JSON(status, CheckoutResponse{CheckoutResult: res, Error: msg})
	}

	return c.JSON(http.StatusCreated, CheckoutResponse{CheckoutResult: res})
}

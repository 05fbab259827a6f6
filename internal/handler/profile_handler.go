package handler

import (
	"net/http"

	"lumina/internal/config"
	"lumina/internal/domain/model"
	"lumina/internal/middleware"
	"lumina/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	uc *usecase.ProfileUsecase
}

func NewProfileHandler(uc *usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/me/profile")
	g.Use(middleware.AuthJWT(cfg.JWTSecret))

	g.GET("", h.Get)
	g.PUT("", h.Update)
	g.PUT("/shipping-address", h.SaveShippingAddress)
}

func (h *ProfileHandler) Get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeSentinelError(c, usecase.ErrUnauthorized)
	}

	p, err := h.uc.Get(c.Request().Context(), userID, getUserEmailFromContext(c))
	if err != nil {
		return writeSentinelError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeSentinelError(c, usecase.ErrUnauthorized)
	}

	var req usecase.ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeSentinelError(c, usecase.ErrValidation)
	}

	p, err := h.uc.Update(c.Request().Context(), userID, getUserEmailFromContext(c), req)
	if err != nil {
		return writeSentinelError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) SaveShippingAddress(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeSentinelError(c, usecase.ErrUnauthorized)
	}

	var addr model.Address
	if err := c.Bind(&addr); err != nil {
		return writeSentinelError(c, usecase.ErrValidation)
	}

	p, err := h.uc.SaveShippingAddress(c.Request().Context(), userID, addr)
	if err != nil {
		return writeSentinelError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

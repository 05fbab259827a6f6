package handler

import (
	"net/http"
	"strconv"

	"lumina/internal/config"
	"lumina/internal/middleware"
	"lumina/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 住所検索・地図から住所の解決
type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

func (h *AddressHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/addresses")
	g.Use(middleware.AuthJWT(cfg.JWTSecret))

	g.GET("/search", h.search)
	g.GET("/reverse", h.reverse)
}

// 失敗しても200で空の一覧
func (h *AddressHandler) search(c echo.Context) error {
	list := h.uc.Search(c.Request().Context(), c.QueryParam("q"))
	return c.JSON(http.StatusOK, list)
}

func (h *AddressHandler) reverse(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lat"})
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lng"})
	}

	addr := h.uc.Resolve(c.Request().Context(), lat, lng)
	return c.JSON(http.StatusOK, addr)
}

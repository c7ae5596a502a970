package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"
	"app/internal/ws"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Newはルーティング済みのechoインスタンスを組み立てる
func New(
	cfg config.Config,
	authH *handler.AuthHandler,
	orderH *handler.OrderHandler,
	wsH *ws.Handler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	authH.RegisterRoutes(e)
	orderH.RegisterRoutes(e, cfg)
	wsH.RegisterRoutes(e)

	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}

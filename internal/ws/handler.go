package ws

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handlerは GET /ws をWebSocket接続に引き上げる
type Handler struct {
	hub      *Hub
	cfg      config.Config
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(hub *Hub, cfg config.Config, log *zap.Logger) *Handler {
	return &Handler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg),
		},
		log: log,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.serve)
}

// ブラウザのWebSocket APIはヘッダーを付けられないのでtokenはクエリで受ける
func (h *Handler) serve(c echo.Context) error {
	rawToken := c.QueryParam("token")
	if rawToken == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	claims, err := middleware.ParseClaims(h.cfg.JWTSecret, rawToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		//Upgradeが失敗レスポンスを書いているのでここでは返さない
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return nil
	}

	NewClient(h.hub, conn, claims.UserID, claims.Role, claims.City).Start()
	return nil
}

// devではOrigin無検査、それ以外はフロントURLのみ許可
func originChecker(cfg config.Config) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if cfg.GoEnv == "dev" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == cfg.FEURL
	}
}

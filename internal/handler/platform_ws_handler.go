package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	ws "github.com/stemsi/exstem-attempt/internal/websocket"
)

// PlatformWSHandler connects the exam view to the integrity platform bridge.
type PlatformWSHandler struct {
	bridge   *ws.Bridge
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewPlatformWSHandler creates a new PlatformWSHandler.
func NewPlatformWSHandler(bridge *ws.Bridge, log zerolog.Logger, allowedOrigins []string) *PlatformWSHandler {
	return &PlatformWSHandler{
		bridge:   bridge,
		log:      log.With().Str("component", "platform_ws_handler").Logger(),
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/platform
// Carries visibility and navigation events in, leave guard commands out.
func (h *PlatformWSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := h.bridge.Serve(c.Request.Context(), conn); err != nil {
		if errors.Is(err, ws.ErrViewAttached) {
			h.log.Warn().Msg("Rejected second view connection")
			return
		}
		h.log.Error().Err(err).Msg("Platform stream ended")
	}
}

package monitor

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ElanScarton/leilao-api/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is consumed cross-origin by the front end.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GinHandlers contains HTTP handlers for live auction streaming
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for monitor endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// LiveHandler upgrades the request to a websocket and streams every monitor
// refresh of the auction to the client as JSON. The monitor is stopped when
// the client disconnects or when it observes a terminal status, whichever
// comes first. URL parameter: auction_id.
func (h *GinHandlers) LiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("auction_id", auctionID).Msg("websocket upgrade failed")
			return
		}

		logger := log.With().
			Str("component", "live_stream").
			Str("auction_id", auctionID).
			Logger()

		updates := make(chan *types.AuctionView, 8)
		m := h.service.StartMonitoring(auctionID, func(view *types.AuctionView) {
			select {
			case updates <- view:
			default:
				// slow consumer, drop the frame; the next tick resends a full view
			}
		})

		// Reader goroutine: the only way to notice a client disconnect.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer func() {
			h.service.StopMonitoring(m.HandleID)
			conn.Close()
		}()

		for {
			select {
			case <-clientGone:
				logger.Info().Msg("client disconnected, stream closed")
				return
			case <-m.Done():
				// flush anything delivered before the monitor stopped
				for {
					select {
					case view := <-updates:
						_ = conn.WriteJSON(view)
					default:
						_ = conn.WriteControl(websocket.CloseMessage,
							websocket.FormatCloseMessage(websocket.CloseNormalClosure, "auction reached terminal status"),
							time.Now().Add(time.Second))
						logger.Info().Msg("auction terminal, stream closed")
						return
					}
				}
			case view := <-updates:
				if err := conn.WriteJSON(view); err != nil {
					logger.Warn().Err(err).Msg("write failed, stream closed")
					return
				}
			}
		}
	}
}

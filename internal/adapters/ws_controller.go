// Package adapters owns the transports: the websocket session loop and the
// HTTP surface around it.
package adapters

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatWSController struct {
	Orch    *app.Orchestrator
	Cfg     *config.Config
	limiter *FrameRateLimiter
}

func NewChatWSController(orch *app.Orchestrator, cfg *config.Config) *ChatWSController {
	return &ChatWSController{
		Orch:    orch,
		Cfg:     cfg,
		limiter: NewFrameRateLimiter(cfg.FrameRateLimit, cfg.FrameRateWindow),
	}
}

type wsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsChatConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleChat upgrades GET /ws/:room/:username and runs the session loop.
// Room name and username come straight from the path, unvalidated; duplicate
// usernames are distinct connections sharing a display name.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	roomName := domain.RoomName(c.Param("room"))
	username := c.Param("username")

	// Remember the display name for /api/me. Must happen before the
	// upgrade hijacks the response.
	sess := sessions.Default(c)
	sess.Set("display_name", username)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("session save")
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	id := core.ConnID(uuid.NewString())
	conn := &wsChatConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	log.Info().Str("module", "adapters.ws").Str("id", string(id)).
		Str("room", string(roomName)).Str("user", username).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	metrics.ConnectionsOpen.Inc()
	ctl.Orch.Join(roomName, username, id, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, roomName, username, id, conn)
}

package adapters

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
)

func (ctl *ChatWSController) writePump(ctx context.Context, c *wsChatConn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.ws").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "adapters.ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.SendTimeout)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.SendTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the session loop. It exits on the first read error (the
// transport's disconnect signal) and leaves the room on the way out.
func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, roomName domain.RoomName, username string, id core.ConnID, c *wsChatConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("id", string(id)).Msg("readPump closing")
		cancel()
		ctl.Orch.OnDisconnect(roomName, id)
		ctl.limiter.Forget(id)
		c.Close()
		metrics.ConnectionsOpen.Dec()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.ws").Str("id", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("id", string(id)).Msg("readPump read error")
				return
			}
			if !ctl.limiter.Allow(id) {
				log.Debug().Str("module", "adapters.ws").Str("id", string(id)).Msg("frame rate limited")
				continue
			}
			ctl.Orch.OnFrame(roomName, username, id, data)
		}
	}
}

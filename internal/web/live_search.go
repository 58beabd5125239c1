package web

import (
	"context"
	"encoding/json"
	"errors"
	"happy-game/internal/domain"
	"happy-game/internal/search"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 1024
)

var errCatalogUnavailable = errors.New(msgLoadGamesFailed)

type searchRequest struct {
	Query string `json:"query"`
}

type searchConn struct {
	conn   *websocket.Conn
	send   chan search.Update
	done   chan struct{}
	logger zerolog.Logger
}

// liveSearch streams results for the search box. The first search uses the
// q parameter of the upgrade request, then the client sends {"query": "..."}
// on every keystroke. Searches are debounced server side.
func (h *Handler) liveSearch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := &searchConn{
		conn:   conn,
		send:   make(chan search.Update, 16),
		done:   make(chan struct{}),
		logger: *h.log(r),
	}

	debouncer := search.NewDebouncer(ctx, h.debounce, h.searchGames, c.publish)
	defer debouncer.Stop()

	go c.writePump()
	debouncer.Type(r.URL.Query().Get("q"))
	c.readPump(debouncer)
}

func (h *Handler) searchGames(ctx context.Context, query string) ([]domain.Game, error) {
	res := h.catalog.SearchGames(ctx, query)
	if !res.OK() {
		return nil, errCatalogUnavailable
	}
	return res.Data, nil
}

func (c *searchConn) publish(u search.Update) {
	select {
	case c.send <- u:
	case <-c.done:
	}
}

func (c *searchConn) readPump(debouncer *search.Debouncer) {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("live search connection closed")
			}
			return
		}

		var req searchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.logger.Debug().Err(err).Msg("ignoring malformed search message")
			continue
		}
		debouncer.Type(req.Query)
	}
}

func (c *searchConn) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case u := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(u); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

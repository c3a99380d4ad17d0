// Package ws pushes page updates to browsers over websocket.
package ws

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	clientBuffer = 64
)

// ClientGauge tracks connected clients.
type ClientGauge interface {
	SetClients(n int)
}

// Hub streams store updates to every connected browser.
type Hub struct {
	store    *view.Store
	gauge    ClientGauge
	logger   *applogger.Logger
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

func NewHub(store *view.Store, gauge ClientGauge, logger *applogger.Logger) *Hub {
	return &Hub{
		store:  store,
		gauge:  gauge,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// Serve upgrades the request and streams updates until the browser leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	snapshot, updates, unsubscribe := h.store.SubscribeWithSnapshot(clientBuffer)
	defer unsubscribe()

	h.gauge.SetClients(int(h.clients.Add(1)))
	defer func() {
		h.gauge.SetClients(int(h.clients.Add(-1)))
	}()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	// A new browser may have missed earlier pushes; bring it up to date.
	for _, u := range snapshot {
		if err := h.write(conn, u); err != nil {
			return nil
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := h.write(conn, u); err != nil {
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, u view.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(u); err != nil {
		h.logger.Debug("websocket write failed", applogger.Error(err))
		return err
	}
	return nil
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *Hub) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

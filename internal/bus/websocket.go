package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/net/websocket"
)

// wsConn adapts a websocket connection to [Conn]. Each JSON value travels as one text frame.
type wsConn struct {
	ws  *websocket.Conn
	dec *json.Decoder
	wmu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws, dec: json.NewDecoder(ws)}
}

func (c *wsConn) Read() ([]byte, error) {
	var raw json.RawMessage
	if err := c.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *wsConn) Write(msg []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.ws.Write(msg)
	return err
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// WebSocketHandler serves h to every websocket client that connects.
//
// ctx bounds every connection; cancel it to shut the bus down.
func WebSocketHandler(ctx context.Context, h Handler, logger *log.Logger) http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		conn := newWSConn(ws)
		defer conn.Close()

		remote := ws.Request().RemoteAddr
		if logger != nil {
			logger.Debug("bus client connected", "remote", remote)
		}
		if err := Serve(ctx, conn, h, logger); err != nil && logger != nil {
			logger.Warn("bus connection ended", "remote", remote, "error", err)
		}
	})
}

// DialWebSocket connects to a bus served by [WebSocketHandler] at url (ws://host:port/path).
func DialWebSocket(ctx context.Context, url string, logger *log.Logger) (*Client, error) {
	config, err := websocket.NewConfig(url, "http://localhost/")
	if err != nil {
		return nil, fmt.Errorf("invalid bus URL %q: %w", url, err)
	}

	ws, err := config.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent at %s: %w", url, err)
	}
	return NewClient(newWSConn(ws), logger), nil
}

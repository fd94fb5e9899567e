package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
)

// Client sends requests over a [Conn] and matches responses to them by id.
type Client struct {
	conn   Conn
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]chan ResponseFrame
	err     error
	done    chan struct{}
}

// NewClient starts reading responses from conn.
func NewClient(conn Conn, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Client{
		conn:    conn,
		logger:  logger.WithPrefix("bus"),
		pending: map[string]chan ResponseFrame{},
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	for {
		msg, err := c.conn.Read()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.pending = map[string]chan ResponseFrame{}
			c.mu.Unlock()
			close(c.done)
			return
		}

		var resp ResponseFrame
		if err := json.Unmarshal(msg, &resp); err != nil {
			c.logger.Warn("malformed response", "error", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("response without waiter", "id", resp.ID)
			continue
		}
		ch <- resp
	}
}

// Call sends req and waits for its response payload.
//
// A response carrying an error is returned as a [*RemoteError]. When ctx ends first the
// eventual response is discarded.
func (c *Client) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	id := shared.GenerateID()
	ch := make(chan ResponseFrame, 1)

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return nil, ErrClosed
	default:
	}
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(EncodeRequest(id, req))
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := c.conn.Write(data); err != nil {
		c.forget(id)
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, &RemoteError{Message: resp.Error}
		}
		return resp.Payload, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	payload, err := c.Call(ctx, req)
	if err != nil {
		return out, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &out); err != nil {
			return out, fmt.Errorf("failed to decode %s response: %w", req.Type(), err)
		}
	}
	return out, nil
}

func (c *Client) GetSettings(ctx context.Context) (models.Settings, error) {
	return call[models.Settings](ctx, c, GetSettings{})
}

func (c *Client) SetSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	return call[models.Settings](ctx, c, SetSettings{Settings: patch})
}

func (c *Client) GetSession(ctx context.Context) (models.SessionStatus, error) {
	return call[models.SessionStatus](ctx, c, GetSession{})
}

func (c *Client) StartLogin(ctx context.Context) (models.LoginStarted, error) {
	return call[models.LoginStarted](ctx, c, StartLogin{})
}

func (c *Client) AddTrack(ctx context.Context, track models.Track) (*models.AddResult, error) {
	result, err := call[models.AddResult](ctx, c, AddTrack{Track: track})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the underlying connection; pending calls fail with [ErrClosed].
func (c *Client) Close() error {
	return c.conn.Close()
}

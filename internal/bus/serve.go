package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/shared"
)

// Serve answers requests read from conn until it closes or ctx is done.
//
// Each request is handled on its own goroutine and gets exactly one response, including
// when the handler fails or panics. Serve returns after every in-flight request has been
// answered or its response dropped by a closed connection.
func Serve(ctx context.Context, conn Conn, h Handler, logger *log.Logger) error {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = logger.WithPrefix("bus")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var (
		wg  sync.WaitGroup
		wmu sync.Mutex
	)
	reply := func(resp ResponseFrame) {
		data, err := json.Marshal(resp)
		if err != nil {
			data, _ = json.Marshal(ResponseFrame{ID: resp.ID, Error: err.Error()})
		}

		wmu.Lock()
		defer wmu.Unlock()
		if err := conn.Write(data); err != nil {
			logger.Warn("dropped response", "id", resp.ID, "error", err)
		}
	}

	for {
		msg, err := conn.Read()
		if err != nil {
			wg.Wait()
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var frame RequestFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			logger.Warn("malformed request", "error", err)
			reply(ResponseFrame{ID: frame.ID, Error: "malformed request"})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			reply(handle(ctx, h, frame, logger))
		}()
	}
}

func handle(ctx context.Context, h Handler, frame RequestFrame, logger *log.Logger) (resp ResponseFrame) {
	resp.ID = frame.ID

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "type", frame.Type, "id", frame.ID, "panic", r)
			resp = ResponseFrame{ID: frame.ID, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	payload, err := Dispatch(ctx, h, frame.Request())
	if err != nil {
		logger.Debug("request failed", "type", frame.Type, "error", err)
		resp.Error = err.Error()
		if resp.Error == "" {
			resp.Error = "request failed"
		}
		return resp
	}

	data, err := json.Marshal(payload)
	if err != nil {
		resp.Error = fmt.Sprintf("failed to encode response: %v", err)
		return resp
	}
	resp.Payload = data
	return resp
}

package bus

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by operations on a closed connection or client.
var ErrClosed = errors.New("bus: connection closed")

// Conn carries whole JSON messages in both directions.
//
// Write may be called from several goroutines; Read from one.
type Conn interface {
	Read() ([]byte, error)
	Write(msg []byte) error
	Close() error
}

// pipeConn is one end of an in-process [Pipe].
type pipeConn struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns two connected in-process ends. Closing either end closes both.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &pipeConn{in: ba, out: ab, done: done, once: once}
	b := &pipeConn{in: ab, out: ba, done: done, once: once}
	return a, b
}

func (p *pipeConn) Read() ([]byte, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.done:
		return nil, io.EOF
	}
}

func (p *pipeConn) Write(msg []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.out <- append([]byte(nil), msg...):
		return nil
	case <-p.done:
		return ErrClosed
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

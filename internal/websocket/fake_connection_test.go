package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

type frame struct {
	Type int
	Data []byte
}

// fakeConnection is an in-memory Connection. Reads block until a frame is
// queued with push or the connection is closed.
type fakeConnection struct {
	mu       sync.Mutex
	written  []frame
	incoming chan frame
	closed   chan struct{}
	once     sync.Once

	readLimit   int64
	pongHandler func(string) error
	writeErr    error
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{
		incoming: make(chan frame, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConnection) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return errConnClosed
	default:
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, frame{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConnection) ReadMessage() (int, []byte, error) {
	select {
	case fr := <-f.incoming:
		return fr.Type, fr.Data, nil
	case <-f.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseGoingAway}
	}
}

func (f *fakeConnection) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConnection) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConnection) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConnection) SetReadLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readLimit = limit
}

func (f *fakeConnection) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongHandler = h
}

func (f *fakeConnection) push(data string) {
	f.incoming <- frame{Type: websocket.TextMessage, Data: []byte(data)}
}

// textFrames returns the text payloads written so far.
func (f *fakeConnection) textFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, fr := range f.written {
		if fr.Type == websocket.TextMessage {
			out = append(out, fr.Data)
		}
	}
	return out
}

func (f *fakeConnection) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

package testutils

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var ErrWriteFailed = errors.New("write failed")

// FakeConn stands in for a *websocket.Conn. JSON written by the server side
// appears on Written; bytes pushed to Incoming are returned by ReadMessage.
// Close simulates the peer going away.
type FakeConn struct {
	Written  chan []byte
	Incoming chan []byte

	closed chan struct{}
	once   sync.Once

	mu         sync.Mutex
	failWrites bool
}

func NewFakeConn() *FakeConn {
	return &FakeConn{
		Written:  make(chan []byte, 256),
		Incoming: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (f *FakeConn) SetReadLimit(int64) {}

func (f *FakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *FakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *FakeConn) SetPongHandler(func(string) error) {}

func (f *FakeConn) WriteMessage(int, []byte) error { return nil }

func (f *FakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.Incoming:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (f *FakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrWriteFailed
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case f.Written <- data:
		return nil
	case <-f.closed:
		return websocket.ErrCloseSent
	}
}

func (f *FakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *FakeConn) SetFailWrites(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

func (f *FakeConn) IsClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// NextJSON waits for the next written message and decodes it into v.
func (f *FakeConn) NextJSON(t *testing.T, v interface{}) {
	t.Helper()
	select {
	case data := <-f.Written:
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("failed to decode %s: %v", data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a written message")
	}
}

// ExpectSilence fails if anything is written within d.
func (f *FakeConn) ExpectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case data := <-f.Written:
		t.Fatalf("expected no message, got %s", data)
	case <-time.After(d):
	}
}

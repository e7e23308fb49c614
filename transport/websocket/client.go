package websocket

import (
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

type client struct {
	handle string
	conn   *ws.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(handle string, conn *ws.Conn) *client {
	return &client{
		handle: handle,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// enqueue - reports false when the client is closed or its buffer is full.
func (that *client) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(ws.TextMessage, data); err != nil {
				that.close()
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				that.close()
				return
			}
		case <-that.done:
			that.flush()
			_ = that.conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// flush - writes whatever was queued before the client was closed.
func (that *client) flush() {
	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(ws.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

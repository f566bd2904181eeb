package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit  = 4096
	pongWait   = 60 * time.Second
	sendBuffer = 16
)

// Client is one dashboard connection. Only the write pump writes to the socket.
type Client struct {
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(*Client)
}

// NewClient builds connection wrapper.
func NewClient(conn *websocket.Conn, writeTimeout, pingInterval time.Duration, logger *zap.Logger, onClose func(*Client)) *Client {
	return &Client{
		ws:           conn,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
	}
}

// Start launches the write pump and blocks in the read pump until the peer goes away.
// first is written before anything queued with Send.
func (c *Client) Start(first []byte) {
	go c.writePump(first)
	c.readPump()
}

// readPump only services control frames; dashboards have nothing to say.
func (c *Client) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("stream client read closed", zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump(first []byte) {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	if first != nil {
		if err := c.write(websocket.TextMessage, first); err != nil {
			return
		}
	}

	for {
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing, dropping it when the buffer is full.
func (c *Client) Send(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping stream message, buffer full")
	}
}

// Close tears the connection down once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		// Give the write pump a chance to send the close frame.
		time.AfterFunc(c.writeTimeout, func() { _ = c.ws.Close() })
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

package ws

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pingball/backend/internal/protocol"
	"github.com/pingball/backend/internal/rendezvous"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	helloWait    = 10 * time.Second
	maxLineBytes = 4096
)

var (
	errClientClosed  = errors.New("client closed")
	errSendQueueFull = errors.New("send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Boards and spectators connect from anywhere
	},
}

// Client is one board's socket on the rendezvous side. It implements
// rendezvous.Conn.
type Client struct {
	conn  *websocket.Conn
	board string
	send  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, board string, buffer int) *Client {
	return &Client{
		conn:  conn,
		board: board,
		send:  make(chan []byte, buffer),
		done:  make(chan struct{}),
	}
}

// Send queues one line without blocking. A full buffer drops the line and
// reports errSendQueueFull, so the caller can return a ball to its sender.
func (c *Client) Send(line string) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- []byte(line):
		return nil
	default:
		log.Printf("[WS] Send buffer full for board %s, dropping %q", c.board, line)
		return errSendQueueFull
	}
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return c.conn.Close()
}

// HandleBoardSocket accepts a board connection. The first frame must be
// "board <name>".
func HandleBoardSocket(svc *rendezvous.Service, sendBuffer int) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		name, err := readHello(conn)
		if err != nil {
			log.Printf("[WS] Rejecting board socket from %s: %v", c.ClientIP(), err)
			closeWith(conn, websocket.ClosePolicyViolation, "expected board <name>")
			return
		}

		client := newClient(conn, name, sendBuffer)
		if err := svc.Register(name, client); err != nil {
			log.Printf("[WS] %v", err)
			closeWith(conn, websocket.ClosePolicyViolation, rendezvous.ErrDuplicateBoard.Error())
			return
		}

		go client.writePump()
		go client.readPump(svc)
	}
}

func readHello(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(helloWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	msg, err := protocol.Parse(string(data))
	if err != nil {
		return "", err
	}
	hello, ok := msg.(protocol.Hello)
	if !ok {
		return "", errors.New("first message was " + msg.Verb())
	}
	return hello.Board, nil
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	conn.Close()
}

// writePump writes queued lines and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case line := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, line); err != nil {
				log.Printf("[WS] Write error for board %s: %v", c.board, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for board %s: %v", c.board, err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump hands every frame to the service until the socket fails.
func (c *Client) readPump(svc *rendezvous.Service) {
	defer func() {
		svc.Unregister(c.board, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxLineBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Board %s socket error: %v", c.board, err)
			} else {
				log.Printf("[WS] Board %s closed: %v", c.board, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		svc.Handle(c.board, string(message))
	}
}

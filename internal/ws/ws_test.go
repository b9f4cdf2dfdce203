package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/geometry"
	"github.com/pingball/backend/internal/handoff"
	"github.com/pingball/backend/internal/rendezvous"
	"github.com/vmihailenco/msgpack/v5"
)

func setupRendezvous(t *testing.T) (*rendezvous.Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := rendezvous.NewService(nil)
	r := gin.New()
	r.GET("/ws", HandleBoardSocket(svc, 16))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return svc, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func newBoard(t *testing.T, name string) *game.Board {
	t.Helper()
	b, err := game.NewBoard(game.Description{Name: name})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBallHandoffOverSockets(t *testing.T) {
	svc, url := setupRendezvous(t)
	a, b := newBoard(t, "A"), newBoard(t, "B")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pa := NewPeerClient(url, handoff.New(a), 10*time.Millisecond, 0)
	pb := NewPeerClient(url, handoff.New(b), 10*time.Millisecond, 0)
	done := make(chan error, 2)
	go func() { done <- pa.Run(ctx) }()
	go func() { done <- pb.Run(ctx) }()

	waitFor(t, "both boards to register", func() bool { return len(svc.Boards()) == 2 })
	if pa.State() != Connected {
		t.Errorf("A state = %v", pa.State())
	}
	if _, err := svc.Execute("h A B"); err != nil {
		t.Fatalf("h A B: %v", err)
	}
	waitFor(t, "A to open its right wall", func() bool {
		peer, ok := a.Neighbour(game.Right)
		return ok && peer == "B"
	})

	a.AddBall(geometry.NewVect(19.7, 5), geometry.NewVect(10, 0))
	a.Step(0.05)
	waitFor(t, "the ball to reach B", func() bool { return len(b.Balls()) == 1 })

	got := b.Balls()[0]
	if got.X != 0.26 || got.Y != 5 || got.VX != 10 {
		t.Errorf("ball on B = %+v", got)
	}

	cancel()
	for i := 0; i < 2; i++ {
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	}
	if pa.State() != Disconnected {
		t.Errorf("A state after cancel = %v", pa.State())
	}
	waitFor(t, "the service to drop both boards", func() bool { return len(svc.Boards()) == 0 })
	if _, ok := a.Neighbour(game.Right); ok {
		t.Errorf("A kept its link after disconnecting")
	}
}

func TestDuplicateBoardIsRefused(t *testing.T) {
	svc, url := setupRendezvous(t)

	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	first.WriteMessage(websocket.TextMessage, []byte("board A"))
	waitFor(t, "A to register", func() bool { return len(svc.Boards()) == 1 })

	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	second.WriteMessage(websocket.TextMessage, []byte("board A"))

	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = second.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("second connection err = %v, want policy close", err)
	}
	if closeErr.Text != "board name already connected" {
		t.Errorf("close reason = %q", closeErr.Text)
	}
	if len(svc.Boards()) != 1 {
		t.Errorf("Boards() = %v", svc.Boards())
	}
}

func TestHelloRequired(t *testing.T) {
	svc, url := setupRendezvous(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.WriteMessage(websocket.TextMessage, []byte("ball 1 2 3 4 B left"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("err = %v, want policy close", err)
	}
	if len(svc.Boards()) != 0 {
		t.Errorf("board registered without hello")
	}
}

func TestSpectatorReceivesSnapshots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	board, err := game.NewBoard(game.Description{
		Name:  "Watched",
		Balls: []game.BallSpec{{X: 3, Y: 4}},
	})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewSpectatorHub(4)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/watch", HandleSpectatorSocket(hub, board))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/watch", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() game.Snapshot {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind != websocket.BinaryMessage {
			t.Fatalf("frame type %d, want binary", kind)
		}
		var snap game.Snapshot
		if err := msgpack.Unmarshal(data, &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return snap
	}

	if snap := read(); snap.Board != "Watched" || len(snap.Balls) != 1 {
		t.Errorf("initial snapshot = %+v", snap)
	}

	waitFor(t, "the spectator to register", func() bool { return hub.Count() == 1 })
	board.Pause()
	hub.Broadcast(board.Snapshot())
	if snap := read(); !snap.Paused {
		t.Errorf("broadcast snapshot should be paused")
	}
}

func TestFullSendBufferIsReported(t *testing.T) {
	c := newClient(nil, "A", 1)
	if err := c.Send("connect right B"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := c.Send("connect left C"); !errors.Is(err, errSendQueueFull) {
		t.Errorf("Send on a full buffer = %v, want errSendQueueFull", err)
	}
}

// flakyRendezvous joins the first board to B, then drops it when drop is
// closed. Later sessions stay open.
func flakyRendezvous(t *testing.T) (string, chan string, chan struct{}) {
	t.Helper()
	hellos := make(chan string, 4)
	drop := make(chan struct{})
	var mu sync.Mutex
	sessions := 0
	up := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		mu.Lock()
		sessions++
		first := sessions == 1
		mu.Unlock()
		hellos <- string(data)

		if first {
			conn.WriteMessage(websocket.TextMessage, []byte("connect right B"))
			<-drop
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), hellos, drop
}

func TestPeerClientReconnectsWithClosedWalls(t *testing.T) {
	url, hellos, drop := flakyRendezvous(t)
	a := newBoard(t, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A long tick keeps the client from flushing the departure below.
	pc := NewPeerClient(url, handoff.New(a), time.Hour, 10*time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- pc.Run(ctx) }()

	if got := <-hellos; got != "board A" {
		t.Fatalf("first hello = %q", got)
	}
	waitFor(t, "A to open its right wall", func() bool {
		peer, ok := a.Neighbour(game.Right)
		return ok && peer == "B"
	})

	a.AddBall(geometry.NewVect(19.7, 5), geometry.NewVect(10, 0))
	a.Step(0.05)
	if len(a.Balls()) != 0 {
		t.Fatalf("ball should have left through the open wall")
	}

	close(drop)
	select {
	case got := <-hellos:
		if got != "board A" {
			t.Errorf("second hello = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
	waitFor(t, "the second session", func() bool { return pc.State() == Connected })

	if _, ok := a.Neighbour(game.Right); ok {
		t.Errorf("right wall still open after the session was lost")
	}
	if walls, portals := a.DrainOutbound(); len(walls) != 0 || len(portals) != 0 {
		t.Errorf("pending departures survived the reconnect: %v %v", walls, portals)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
}

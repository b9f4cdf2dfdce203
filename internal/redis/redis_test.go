package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pingball/backend/internal/rendezvous"
	"github.com/redis/go-redis/v9"
)

type fakePublishClient struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublishClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestPublisherSendsJSON(t *testing.T) {
	fake := &fakePublishClient{}
	p := &Publisher{client: fake, channel: EventsChannel}
	p.Publish(rendezvous.Event{Type: rendezvous.EventBoardsJoined, Board: "A", Peer: "B", Axis: "h"})

	if fake.channel != EventsChannel {
		t.Errorf("published on %q", fake.channel)
	}
	var got rendezvous.Event
	if err := json.Unmarshal(fake.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Type != rendezvous.EventBoardsJoined || got.Board != "A" || got.Peer != "B" {
		t.Errorf("event = %+v", got)
	}
}

func TestPublisherSurvivesErrors(t *testing.T) {
	p := &Publisher{client: &fakePublishClient{err: errors.New("down")}, channel: EventsChannel}
	p.Publish(rendezvous.Event{Type: rendezvous.EventBoardLeft, Board: "A"})
}

type fakeConn struct{ lines []string }

func (c *fakeConn) Send(line string) error { c.lines = append(c.lines, line); return nil }
func (c *fakeConn) Close() error           { return nil }

func TestRunCommandJoinsBoards(t *testing.T) {
	svc := rendezvous.NewService(nil)
	a, b := &fakeConn{}, &fakeConn{}
	svc.Register("A", a)
	svc.Register("B", b)

	if _, err := runCommand(svc, "  h A B \n"); err != nil {
		t.Fatalf("runCommand: %v", err)
	}
	if len(a.lines) != 1 || a.lines[0] != "connect right B" {
		t.Errorf("A got %q", a.lines)
	}
	if _, err := runCommand(svc, "nonsense"); !errors.Is(err, rendezvous.ErrBadCommand) {
		t.Errorf("bad command err = %v", err)
	}
	if reply, err := runCommand(svc, "   "); reply != "" || err != nil {
		t.Errorf("blank payload = %q, %v", reply, err)
	}
}

func TestConnectHonoursContext(t *testing.T) {
	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Error("expected error for a malformed URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client, err := Connect(ctx, "redis://127.0.0.1:1/0")
	if err == nil {
		client.Close()
		t.Fatal("expected error for a cancelled context")
	}
}

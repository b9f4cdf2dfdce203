package game

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pingball/backend/internal/geometry"
)

// newFreeBoard builds a board with no gravity or friction.
func newFreeBoard(t *testing.T, obstacles []ObstacleSpec, balls ...BallSpec) *Board {
	t.Helper()
	desc := Description{Name: "test", Obstacles: obstacles, Balls: balls}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func onlyBall(t *testing.T, b *Board) BallState {
	t.Helper()
	balls := b.Balls()
	if len(balls) != 1 {
		t.Fatalf("board has %d balls, want 1", len(balls))
	}
	return balls[0]
}

func TestBallTravelsAndBouncesOffWall(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 2, Y: 2, VX: 1})

	b.Update()
	ball := onlyBall(t, b)
	if !near(ball.X, 2.05, 1e-9) || !near(ball.Y, 2, 1e-9) {
		t.Errorf("after one tick ball at (%v,%v), want (2.05,2)", ball.X, ball.Y)
	}

	for i := 0; i < 500; i++ {
		b.Update()
	}
	ball = onlyBall(t, b)
	if !near(ball.X, 12.45, 3e-7) || !near(ball.Y, 2, 1e-9) {
		t.Errorf("after 501 ticks ball at (%v,%v), want (12.45,2)", ball.X, ball.Y)
	}
	if ball.VX >= 0 {
		t.Errorf("ball should be heading left after the wall, vx=%v", ball.VX)
	}
}

func TestGravityAndFriction(t *testing.T) {
	desc := Description{
		Name:    "g",
		Gravity: 25,
		Balls:   []BallSpec{{X: 10, Y: 5}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	b.Update()
	ball := onlyBall(t, b)
	if !near(ball.VY, 1.25, 1e-9) || !near(ball.Y, 5.0625, 1e-9) {
		t.Errorf("gravity: vy=%v y=%v, want 1.25 5.0625", ball.VY, ball.Y)
	}

	desc = Description{
		Name:      "f",
		Friction1: 0.025,
		Friction2: 0.025,
		Balls:     []BallSpec{{X: 2, Y: 5, VX: 10}},
	}
	b, err = NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	b.Update()
	ball = onlyBall(t, b)
	if !near(ball.VX, 9.8625, 1e-9) {
		t.Errorf("friction: vx=%v, want 9.8625", ball.VX)
	}
}

func TestHeavyFrictionStopsBall(t *testing.T) {
	desc := Description{
		Name:      "f",
		Friction1: 100,
		Balls:     []BallSpec{{X: 2, Y: 5, VX: 10}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	b.Update()
	if ball := onlyBall(t, b); ball.VX != 0 || ball.X != 2 {
		t.Errorf("ball should stop dead, got x=%v vx=%v", ball.X, ball.VX)
	}
}

func TestSquareBumperReflects(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{{Kind: KindSquareBumper, Name: "sq", X: 10, Y: 2}},
		BallSpec{X: 5, Y: 2.5, VX: 10},
	)
	b.Step(1)
	ball := onlyBall(t, b)
	if !near(ball.VX, -10, 1e-9) {
		t.Errorf("vx=%v, want -10", ball.VX)
	}
	if !near(ball.X, 4.5, 1e-5) {
		t.Errorf("x=%v, want 4.5", ball.X)
	}
}

func TestFlipperAtRestReflectsWithCoefficient(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{{Kind: KindLeftFlipper, Name: "lf", X: 10, Y: 10}},
		BallSpec{X: 5, Y: 11, VX: 10},
	)
	b.Step(1)
	ball := onlyBall(t, b)
	if !near(ball.VX, -9.5, 1e-9) || !near(ball.VY, 0, 1e-9) {
		t.Errorf("velocity (%v,%v), want (-9.5,0)", ball.VX, ball.VY)
	}
}

func TestKeyDownSwingsFlipper(t *testing.T) {
	desc := Description{
		Name:      "keys",
		Obstacles: []ObstacleSpec{{Kind: KindRightFlipper, Name: "rf", X: 4, Y: 4}},
		Keys:      []KeySpec{{Key: "space", Phase: KeyDown, Target: "rf"}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	if n := b.KeyDown("space"); n != 1 {
		t.Fatalf("KeyDown ran %d actions, want 1", n)
	}
	if n := b.KeyUp("space"); n != 0 {
		t.Errorf("KeyUp ran %d actions, want 0", n)
	}
	if n := b.KeyDown("x"); n != 0 {
		t.Errorf("unbound key ran %d actions", n)
	}

	b.Step(1)
	f := b.arena.Get(1).(*Flipper)
	if !near(f.Swing(), math.Pi/2, 1e-12) {
		t.Errorf("flipper swing %v after full sweep, want pi/2", f.Swing())
	}
	if keys := b.Keys(); len(keys) != 1 || keys[0] != "space" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestAbsorberCapturesAndKeyLaunches(t *testing.T) {
	desc := Description{
		Name: "abs",
		Obstacles: []ObstacleSpec{
			{Kind: KindAbsorber, Name: "abs", X: 0, Y: 18, Width: 20, Height: 2},
		},
		Balls: []BallSpec{{X: 10, Y: 10, VY: 10}},
		Keys:  []KeySpec{{Key: "space", Phase: KeyDown, Target: "abs"}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}

	b.Step(1)
	ball := onlyBall(t, b)
	if !ball.Captured || ball.X != 19.75 || ball.Y != 19.75 {
		t.Fatalf("ball should rest at (19.75,19.75) captured, got %+v", ball)
	}
	abs := b.arena.Get(1).(*Absorber)
	if abs.Held() != 1 {
		t.Errorf("absorber holds %d, want 1", abs.Held())
	}

	b.KeyDown("space")
	b.Step(0.1)
	ball = onlyBall(t, b)
	if ball.Captured || !near(ball.VY, -50, 1e-9) || !near(ball.Y, 14.75, 1e-9) {
		t.Errorf("launched ball %+v, want vy=-50 y=14.75", ball)
	}
	if abs.Held() != 0 {
		t.Errorf("absorber still holds %d", abs.Held())
	}
}

func TestSelfTriggeringAbsorberShootsStraightBack(t *testing.T) {
	desc := Description{
		Name: "abs",
		Obstacles: []ObstacleSpec{
			{Kind: KindAbsorber, Name: "abs", X: 0, Y: 18, Width: 20, Height: 2},
		},
		Balls:    []BallSpec{{X: 10, Y: 10, VY: 10}},
		Triggers: []TriggerSpec{{Source: "abs", Target: "abs"}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	b.Step(1)
	ball := onlyBall(t, b)
	if ball.Captured || !near(ball.VY, -50, 1e-9) || !near(ball.Y, 8.5, 1e-4) {
		t.Errorf("ball %+v, want free at y=8.5 moving up at 50", ball)
	}
}

func TestAbsorberQueuesSimultaneousBalls(t *testing.T) {
	desc := Description{
		Name: "abs",
		Obstacles: []ObstacleSpec{
			{Kind: KindAbsorber, Name: "abs", X: 0, Y: 18, Width: 20, Height: 2},
		},
		Balls: []BallSpec{{X: 4, Y: 10, VY: 10}, {X: 8, Y: 10, VY: 10}},
	}
	b, err := NewBoard(desc)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	b.Step(1)
	if held := b.arena.Get(1).(*Absorber).Held(); held != 2 {
		t.Errorf("absorber holds %d, want 2", held)
	}
}

func TestBallsExchangeVelocities(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 5, Y: 10, VX: 1}, BallSpec{X: 7, Y: 10, VX: -1})
	b.Step(1)
	balls := b.Balls()
	if len(balls) != 2 {
		t.Fatalf("got %d balls", len(balls))
	}
	if !near(balls[0].VX, -1, 1e-9) || !near(balls[1].VX, 1, 1e-9) {
		t.Errorf("velocities %v and %v, want -1 and 1", balls[0].VX, balls[1].VX)
	}
	if gap := balls[1].X - balls[0].X; gap < 2*BallRadius {
		t.Errorf("balls overlap after bounce, gap %v", gap)
	}
}

func TestSpeedIsClamped(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 10, Y: 10, VX: 500})
	ball := onlyBall(t, b)
	if !near(ball.VX, MaxSpeed, 1e-9) {
		t.Errorf("vx=%v, want %v", ball.VX, MaxSpeed)
	}
}

func TestDepartureThroughOpenWall(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 19, Y: 10, VX: 10})
	b.Connect(Right, "east")
	b.Step(0.1)

	if n := len(b.Balls()); n != 0 {
		t.Fatalf("ball should have left, %d remain", n)
	}
	walls, portals := b.DrainOutbound()
	if len(walls) != 1 || len(portals) != 0 {
		t.Fatalf("outbound walls=%d portals=%d", len(walls), len(portals))
	}
	d := walls[0]
	if d.Side != Right || d.Peer != "east" || d.Ball.VX != 10 || d.Ball.Y != 10 {
		t.Errorf("departure %+v", d)
	}
	if walls, _ := b.DrainOutbound(); len(walls) != 0 {
		t.Errorf("DrainOutbound should clear the queue")
	}
}

func TestDisconnectRestoresWall(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 19, Y: 10, VX: 10})
	b.Connect(Right, "east")
	b.Disconnect(Right)
	b.Step(0.1)

	ball := onlyBall(t, b)
	if ball.VX != -10 {
		t.Errorf("ball should bounce off the restored wall, vx=%v", ball.VX)
	}
	if _, ok := b.Neighbour(Right); ok {
		t.Errorf("right neighbour still set")
	}
}

func TestDisconnectAllDropsPending(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 19, Y: 10, VX: 10})
	b.Connect(Right, "east")
	b.Connect(Top, "north")
	b.Step(0.1)
	b.DisconnectAll()

	walls, _ := b.DrainOutbound()
	if len(walls) != 0 {
		t.Errorf("pending departures survived DisconnectAll: %v", walls)
	}
	if n := len(b.Neighbours()); n != 0 {
		t.Errorf("%d neighbours left", n)
	}
}

func TestReceiveBallEntersOppositeEdge(t *testing.T) {
	b := newFreeBoard(t, nil)
	cases := []struct {
		from  Side
		in    BallState
		wantX float64
		wantY float64
	}{
		{Right, BallState{X: 19.9, Y: 5, VX: 3, VY: 1}, 0.26, 5},
		{Left, BallState{X: 0.1, Y: 7, VX: -3}, 19.74, 7},
		{Bottom, BallState{X: 4, Y: 19.9, VY: 2}, 4, 0.26},
		{Top, BallState{X: 6, Y: 0.1, VY: -2}, 6, 19.74},
	}
	for _, c := range cases {
		if !b.ReceiveBall(c.from, c.in) {
			t.Errorf("%s: ball not placed", c.from)
		}
	}
	balls := b.Balls()
	if len(balls) != len(cases) {
		t.Fatalf("got %d balls", len(balls))
	}
	for i, c := range cases {
		got := balls[i]
		if !near(got.X, c.wantX, 1e-9) || !near(got.Y, c.wantY, 1e-9) {
			t.Errorf("%s: ball at (%v,%v), want (%v,%v)", c.from, got.X, got.Y, c.wantX, c.wantY)
		}
		if got.VX != c.in.VX || got.VY != c.in.VY {
			t.Errorf("%s: velocity changed to (%v,%v)", c.from, got.VX, got.VY)
		}
	}
}

func TestReceiveBallBlockedLane(t *testing.T) {
	b := newFreeBoard(t, []ObstacleSpec{{Kind: KindSquareBumper, Name: "sq", X: 0, Y: 5}})
	b.Connect(Left, "west")

	if b.ReceiveBall(Right, BallState{X: 19.9, Y: 5.5, VX: 3}) {
		t.Fatalf("blocked ball should be returned")
	}
	walls, _ := b.DrainOutbound()
	if len(walls) != 1 {
		t.Fatalf("got %d departures, want 1", len(walls))
	}
	if d := walls[0]; d.Side != Left || d.Peer != "west" || d.Ball.VX != -3 {
		t.Errorf("return trip %+v", d)
	}

	b.Disconnect(Left)
	if !b.ReceiveBall(Right, BallState{X: 19.9, Y: 5.5, VX: 3}) {
		t.Fatalf("with the edge closed the ball should stay")
	}
	if ball := onlyBall(t, b); ball.VX != -3 {
		t.Errorf("kept ball vx=%v, want -3", ball.VX)
	}
}

func TestPortalTeleportsOnSameBoard(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{
			{Kind: KindPortal, Name: "p1", X: 5, Y: 10, OtherPortal: "p2"},
			{Kind: KindPortal, Name: "p2", X: 15, Y: 10, OtherPortal: "p1"},
		},
		BallSpec{X: 2, Y: 10.5, VX: 10},
	)
	b.Step(0.3)
	ball := onlyBall(t, b)
	if !near(ball.X, 16.55, 1e-5) || !near(ball.Y, 10.5, 1e-9) || ball.VX != 10 {
		t.Errorf("ball %+v, want x=16.55 moving right", ball)
	}
}

func TestPortalWithoutTargetIsTransparent(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{{Kind: KindPortal, Name: "p1", X: 5, Y: 10, OtherPortal: "missing"}},
		BallSpec{X: 2, Y: 10.5, VX: 10},
	)
	b.Step(0.5)
	if ball := onlyBall(t, b); !near(ball.X, 7, 1e-9) {
		t.Errorf("ball should pass straight through, x=%v", ball.X)
	}
}

func TestCrossBoardPortalNeedsSession(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{{Kind: KindPortal, Name: "p1", X: 5, Y: 10, OtherBoard: "other", OtherPortal: "q"}},
		BallSpec{X: 2, Y: 10.5, VX: 10},
	)
	b.Step(0.1)
	b.SetOnline(true)
	b.Step(0.5)

	if n := len(b.Balls()); n != 0 {
		t.Fatalf("%d balls left, want 0", n)
	}
	_, portals := b.DrainOutbound()
	if len(portals) != 1 {
		t.Fatalf("got %d portal departures", len(portals))
	}
	p := portals[0]
	if p.Portal != "p1" || p.OtherBoard != "other" || p.OtherPortal != "q" || p.Ball.VX != 10 {
		t.Errorf("portal departure %+v", p)
	}
}

func TestExitPortal(t *testing.T) {
	b := newFreeBoard(t, []ObstacleSpec{{Kind: KindPortal, Name: "q", X: 10, Y: 10, OtherBoard: "a", OtherPortal: "p"}})
	if err := b.ExitPortal("q", BallState{VX: 0, VY: -4}); err != nil {
		t.Fatalf("ExitPortal: %v", err)
	}
	ball := onlyBall(t, b)
	if !near(ball.X, 10.5, 1e-9) || !near(ball.Y, 9.7, 1e-9) || ball.VY != -4 {
		t.Errorf("exited ball %+v", ball)
	}
	if err := b.ExitPortal("nope", BallState{}); !errors.Is(err, ErrUnknownPortal) {
		t.Errorf("unknown portal err = %v", err)
	}
}

func TestPauseAndReset(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 5, Y: 5, VX: 1})
	b.Pause()
	b.Update()
	if ball := onlyBall(t, b); ball.X != 5 {
		t.Errorf("paused board moved ball to %v", ball.X)
	}
	b.Resume()
	b.Update()
	b.AddBall(geometry.NewVect(3, 3), geometry.NewVect(0, 1))
	if n := len(b.Balls()); n != 2 {
		t.Fatalf("got %d balls", n)
	}

	b.Reset()
	if ball := onlyBall(t, b); ball.X != 5 || ball.VX != 1 {
		t.Errorf("reset ball %+v", ball)
	}
}

func TestInvalidDescriptions(t *testing.T) {
	cases := map[string]Description{
		"no name":     {},
		"bad kind":    {Name: "a", Obstacles: []ObstacleSpec{{Kind: "spinner"}}},
		"orientation": {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindTriangleBumper, Orientation: 45}}},
		"outside":     {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindLeftFlipper, X: 19, Y: 0}}},
		"duplicate": {Name: "a", Obstacles: []ObstacleSpec{
			{Kind: KindSquareBumper, Name: "x"},
			{Kind: KindCircleBumper, Name: "x", X: 3},
		}},
		"ball outside":    {Name: "a", Balls: []BallSpec{{X: 0.1, Y: 5}}},
		"trigger target":  {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindSquareBumper, Name: "x"}}, Triggers: []TriggerSpec{{Source: "x", Target: "y"}}},
		"portal target":   {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindPortal, Name: "p"}}},
		"friction":        {Name: "a", Friction1: -1},
		"spaced board":    {Name: "my board"},
		"spaced bumper":   {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindSquareBumper, Name: "big one"}}},
		"nameless portal": {Name: "a", Obstacles: []ObstacleSpec{{Kind: KindPortal, OtherPortal: "q"}}},
		"spaced portal target": {Name: "a", Obstacles: []ObstacleSpec{
			{Kind: KindPortal, Name: "p", OtherBoard: "other board", OtherPortal: "q"},
		}},
	}
	for name, desc := range cases {
		if _, err := NewBoard(desc); !errors.Is(err, ErrInvalidDescription) {
			t.Errorf("%s: err = %v, want ErrInvalidDescription", name, err)
		}
	}
}

func TestRender(t *testing.T) {
	b := newFreeBoard(t,
		[]ObstacleSpec{
			{Kind: KindSquareBumper, Name: "sq", X: 3, Y: 4},
			{Kind: KindTriangleBumper, Name: "tr", X: 5, Y: 4, Orientation: 90},
			{Kind: KindAbsorber, Name: "abs", X: 0, Y: 19, Width: 20, Height: 1},
		},
		BallSpec{X: 10.5, Y: 10.5},
	)
	b.Connect(Right, "east")
	out := Render(b.Snapshot())
	rows := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(rows) != 22 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[5][4] != '#' || rows[5][6] != '\\' {
		t.Errorf("row 5 = %q", rows[5])
	}
	if rows[11][11] != '*' {
		t.Errorf("row 11 = %q", rows[11])
	}
	if rows[20][1:21] != strings.Repeat("=", 20) {
		t.Errorf("absorber row = %q", rows[20])
	}
	if rows[1][21] != 'e' || rows[4][21] != 't' {
		t.Errorf("neighbour name missing from right border")
	}
	if rows[0] != strings.Repeat(".", 22) {
		t.Errorf("top border = %q", rows[0])
	}
}

func TestRunnerTickFiresHooks(t *testing.T) {
	b := newFreeBoard(t, nil, BallSpec{X: 19.7, Y: 10, VX: 10})
	b.Connect(Right, "east")

	var departed []Departure
	var snaps int
	r := NewRunner(b, 0, Hooks{
		Outbound: func(walls []Departure, _ []PortalDeparture) { departed = append(departed, walls...) },
		Tick:     func(Snapshot) { snaps++ },
	})
	r.Tick()

	if len(departed) != 1 || departed[0].Peer != "east" {
		t.Errorf("departed = %+v", departed)
	}
	if snaps != 1 {
		t.Errorf("tick hook ran %d times", snaps)
	}
}

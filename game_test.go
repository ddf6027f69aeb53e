package main

import (
	"math"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestGameAddRemovePlayer(t *testing.T) {
	g := newTestGame(t)
	p, conn := addTestPlayer(t, g, "TestPilot")
	if p.Name != "TestPilot" || p.Addr != conn.Addr() {
		t.Errorf("unexpected player %+v", p)
	}
	if g.PlayerCount() != 1 || !g.HasPlayer(p.ID) {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
	if !g.EmptySince().IsZero() {
		t.Error("occupied game should not be empty")
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
	if g.EmptySince().IsZero() {
		t.Error("game should be marked empty")
	}
}

func TestGameLowestFreeID(t *testing.T) {
	g := newTestGame(t)
	a, _ := addTestPlayer(t, g, "a")
	b, _ := addTestPlayer(t, g, "b")
	c, _ := addTestPlayer(t, g, "c")
	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Fatalf("expected ids 1,2,3; got %d,%d,%d", a.ID, b.ID, c.ID)
	}
	g.RemovePlayer(b.ID)
	d, _ := addTestPlayer(t, g, "d")
	if d.ID != 2 {
		t.Errorf("expected reused id 2, got %d", d.ID)
	}
}

func TestGameUniqueNames(t *testing.T) {
	g := newTestGame(t)
	names := []string{}
	for i := 0; i < 3; i++ {
		p, err := g.AddPlayer("A", newFakeConn("conn-"+string(rune('a'+i))))
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, p.Name)
	}
	want := []string{"A", "A_1", "A_2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("player %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestGameSessionFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	g := NewGame("full", cfg, testArena())
	addTestPlayer(t, g, "a")
	addTestPlayer(t, g, "b")
	if _, err := g.AddPlayer("c", newFakeConn("conn-c")); err != ErrSessionFull {
		t.Errorf("expected ErrSessionFull, got %v", err)
	}
}

func TestGameSpawnRoundRobin(t *testing.T) {
	g := newTestGame(t)
	a, _ := addTestPlayer(t, g, "a")
	b, _ := addTestPlayer(t, g, "b")
	c, _ := addTestPlayer(t, g, "c")
	if a.Pos != (Vec2{100, 0}) || b.Pos != (Vec2{300, 0}) || c.Pos != (Vec2{100, 0}) {
		t.Errorf("unexpected spawns %v %v %v", a.Pos, b.Pos, c.Pos)
	}
}

func TestGameHandleInput(t *testing.T) {
	g := newTestGame(t)
	p, _ := addTestPlayer(t, g, "a")

	g.HandleInput(p.ID, ClientInput{MX: 200, MY: 50, Right: true, Switch: 9})
	if !p.Input.Right || p.Input.MX != 200 {
		t.Errorf("input not stored: %+v", p.Input)
	}
	if p.Input.Switch != 0 {
		t.Errorf("out of range switch should be dropped, got %d", p.Input.Switch)
	}

	g.HandleInput(p.ID, ClientInput{MX: math.Inf(1), Left: true})
	if p.Input.Left {
		t.Error("non-finite aim should reject the input")
	}

	// unknown players are ignored
	g.HandleInput(99, ClientInput{Right: true})
}

func TestGameStateBroadcastRate(t *testing.T) {
	g := newTestGame(t)
	_, conn := addTestPlayer(t, g, "a")
	spec := newFakeConn("spectator")
	g.AddSpectator(spec)

	g.Step(testDT)
	if len(conn.bin) != 0 {
		t.Fatalf("expected no snapshot on tick 1, got %d frames", len(conn.bin))
	}
	g.Step(testDT)
	if len(conn.bin) != 1 || len(spec.bin) != 1 {
		t.Fatalf("expected one snapshot on tick 2, got %d/%d", len(conn.bin), len(spec.bin))
	}

	var f Frame
	if err := msgpack.Unmarshal(conn.bin[0], &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.T != MsgState || f.State == nil {
		t.Fatalf("expected a state frame, got %+v", f)
	}
	if f.State.Tick != 2 || len(f.State.Players) != 1 {
		t.Errorf("unexpected snapshot %+v", f.State)
	}
	if f.State.Players[0].Weapon != 2 || f.State.Players[0].Ammo != 25 {
		t.Errorf("expected the starting shotgun, got %+v", f.State.Players[0])
	}
}

func TestGameSpectators(t *testing.T) {
	g := newTestGame(t)
	spec := newFakeConn("spectator")
	g.AddSpectator(spec)
	if g.SpectatorCount() != 1 || g.PlayerCount() != 0 {
		t.Errorf("expected 1 spectator and no players")
	}
	if !g.EmptySince().IsZero() {
		t.Error("a spectator keeps the game alive")
	}
	g.RemoveSpectator(spec.Addr())
	if g.SpectatorCount() != 0 || g.EmptySince().IsZero() {
		t.Error("game should be empty again")
	}
}

func TestGameDetachAndResume(t *testing.T) {
	g := newTestGame(t)
	p, old := addTestPlayer(t, g, "a")

	g.Detach(p.ID, old.Addr())
	if !p.detached || !g.HasPlayer(p.ID) {
		t.Fatal("detached player should stay in the game")
	}
	if !g.EmptySince().IsZero() {
		t.Error("a resumable player keeps the game alive")
	}

	fresh := newFakeConn("conn-fresh")
	if _, err := g.Resume(p.ID, fresh); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if p.detached || p.Addr != fresh.Addr() {
		t.Errorf("expected player bound to the new connection, got %+v", p)
	}

	// the old connection closing late must not detach the resumed player
	g.Detach(p.ID, old.Addr())
	if p.detached {
		t.Error("stale detach should be ignored")
	}

	if _, err := g.Resume(42, fresh); err != ErrPlayerNotFound {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestGameDetachedTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlayerTimeout = 100 * time.Millisecond
	g := NewGame("timeout", cfg, testArena())
	gone, conn := addTestPlayer(t, g, "gone")
	idle, _ := addTestPlayer(t, g, "idle")

	g.Detach(gone.ID, conn.Addr())
	for i := 0; i < 3; i++ {
		g.Step(0.05)
	}
	if g.HasPlayer(gone.ID) {
		t.Error("detached player should time out")
	}
	if !g.HasPlayer(idle.ID) {
		t.Error("connected idle player should stay")
	}
}

func TestGameRespawn(t *testing.T) {
	g := newTestGame(t)
	p, _ := addTestPlayer(t, g, "a")
	addTestPlayer(t, g, "b")

	p.Die(0.1)
	g.Step(0.05)
	if !p.Dead {
		t.Fatal("should still be waiting to respawn")
	}
	g.Step(0.05)
	g.Step(0.05)
	if p.Dead || p.HP != PlayerMaxHP {
		t.Errorf("expected a respawned player, got %+v", p)
	}
	// third spawn in the rotation
	if p.Pos != (Vec2{100, 0}) {
		t.Errorf("expected respawn at the next spawn point, got %v", p.Pos)
	}
}

func TestGameShotgunHitsOpponent(t *testing.T) {
	g := newTestGame(t)
	shooter, _ := addTestPlayer(t, g, "shooter")
	target, _ := addTestPlayer(t, g, "target")

	g.HandleInput(shooter.ID, ClientInput{MX: 400, MY: 54, Att: true})
	g.Step(testDT)

	if target.HP != PlayerMaxHP-24 {
		t.Errorf("expected all six pellets to land, got HP %d", target.HP)
	}
	if target.Vel[0] <= 0 {
		t.Errorf("expected knockback away from the shooter, got %v", target.Vel)
	}
	if ammo := shooter.Weapons.Current().Ammo; ammo != 24 {
		t.Errorf("expected 24 rounds left, got %d", ammo)
	}
}

func TestGamePickupCollected(t *testing.T) {
	arena := testArena()
	arena.Pickups = []PickupSpot{{Weapon: WeaponBlaster, Pos: Vec2{100, 0}}}
	g := NewGame("pickups", DefaultConfig(), arena)
	p, _ := addTestPlayer(t, g, "a")

	g.Step(testDT)
	if !p.Weapons.Owns(WeaponBlaster) {
		t.Error("player standing on the pickup should collect it")
	}
	if g.pickups[0].Active() {
		t.Error("pickup should be inactive after collection")
	}
}

func TestGameRunStop(t *testing.T) {
	g := newTestGame(t)
	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	g.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("game loop did not stop")
	}
	g.Stop()
}

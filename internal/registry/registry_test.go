package registry

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/room"
)

func newTestRegistry(t *testing.T, onFull OnFull) *Registry {
	t.Helper()
	if onFull == nil {
		onFull = func(*room.Room) {}
	}
	return New(zap.NewNop(), onFull, 50*time.Millisecond)
}

func TestCreateRoomAutoJoinsCreator(t *testing.T) {
	g := newTestRegistry(t, nil)

	rm, p := g.CreateRoom("t1", "Alice")
	require.NotNil(t, rm)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, room.ModePrivate, rm.Mode)
	assert.Equal(t, 1, rm.PlayerCount())

	got, _, ok := g.RoomOf("t1")
	require.True(t, ok)
	assert.Same(t, rm, got)
}

func TestJoinRoomErrors(t *testing.T) {
	g := newTestRegistry(t, nil)

	_, _, err := g.JoinRoom("room_NOPE", "t1", "Alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	rm, _ := g.CreateRoom("t1", "Alice")
	_, _, err = g.JoinRoom(rm.ID, "t2", "Bob")
	require.NoError(t, err)
	_, _, err = g.JoinRoom(rm.ID, "t3", "Cleo")
	require.NoError(t, err)

	_, _, err = g.JoinRoom(rm.ID, "t4", "Dana")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinRandomReusesOpenRoom(t *testing.T) {
	g := newTestRegistry(t, nil)

	rm1, p1 := g.JoinRandom("t1", "Alice")
	require.Equal(t, room.ModeRandom, rm1.Mode)
	require.Equal(t, 1, p1.Number)

	rm2, p2 := g.JoinRandom("t2", "Bob")
	assert.Same(t, rm1, rm2)
	assert.Equal(t, 2, p2.Number)
}

func TestJoinRandomNeverDoubleBooksTransport(t *testing.T) {
	g := newTestRegistry(t, nil)

	rm1, p1 := g.JoinRandom("t1", "Alice")
	rm2, p2 := g.JoinRandom("t1", "Alice")

	assert.Same(t, rm1, rm2)
	assert.Equal(t, p1.Number, p2.Number)
	assert.Equal(t, 1, rm1.PlayerCount())
}

func TestPrivateRoomInvisibleToRandomPool(t *testing.T) {
	g := newTestRegistry(t, nil)

	private, _ := g.CreateRoom("t1", "Alice")
	random, _ := g.JoinRandom("t2", "Bob")

	assert.NotSame(t, private, random)
}

func TestRoomIDsStayDistinctAcrossBothCreationPaths(t *testing.T) {
	g := newTestRegistry(t, nil)

	ids := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rm, _ := g.CreateRoom(fmt.Sprintf("private-%d", i), "Alice")
		assert.False(t, ids[rm.ID], "id %s reused", rm.ID)
		ids[rm.ID] = true
	}
	// Random-pool rooms draw from the same code space and the same
	// taken-check, so a fresh one never lands on a live id either.
	rm, _ := g.JoinRandom("t-random", "Bob")
	assert.False(t, ids[rm.ID], "id %s reused", rm.ID)
	assert.Equal(t, 21, g.RoomCount())
}

func TestThirdJoinFiresScenarioOnce(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	g := newTestRegistry(t, func(rm *room.Room) {
		fired.Add(1)
		close(done)
	})

	rm, _ := g.CreateRoom("t1", "Alice")
	_, _, err := g.JoinRoom(rm.ID, "t2", "Bob")
	require.NoError(t, err)
	_, _, err = g.JoinRoom(rm.ID, "t3", "Cleo")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scenario never started")
	}
	assert.Equal(t, int32(1), fired.Load())
	assert.True(t, rm.Started())
}

func TestLobbyLeaveKeepsRoomAlive(t *testing.T) {
	g := newTestRegistry(t, nil)

	rm, _ := g.CreateRoom("t1", "Alice")
	_, _, err := g.JoinRoom(rm.ID, "t2", "Bob")
	require.NoError(t, err)

	g.Leave("t2")

	assert.False(t, rm.Closed())
	assert.Equal(t, 1, rm.PlayerCount())
	assert.Equal(t, map[int]string{1: "Alice"}, rm.Names())
}

func TestLastLeaveClosesAndDeletesAfterGrace(t *testing.T) {
	g := newTestRegistry(t, nil)

	rm, _ := g.CreateRoom("t1", "Alice")
	g.Leave("t1")

	assert.True(t, rm.Closed(), "room closes immediately")
	_, stillThere := g.Get(rm.ID)
	assert.True(t, stillThere, "deletion deferred past the grace window")

	require.Eventually(t, func() bool {
		_, ok := g.Get(rm.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestLeaveUnknownTransportIsNoop(t *testing.T) {
	g := newTestRegistry(t, nil)
	g.Leave("ghost")
	assert.Equal(t, 0, g.RoomCount())
}

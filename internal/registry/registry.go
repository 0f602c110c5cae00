// Package registry owns the process-wide room map and matchmaking. It is the
// only shared mutable state between rooms; everything behind a single narrow
// mutex, including the transport-to-room index used to scope inbound events.
package registry

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// DefaultGrace is how long a closed room's state outlives its last player so
// suspended waits can observe closure instead of a dangling read.
const DefaultGrace = 250 * time.Millisecond

// OnFull runs once per room, in its own goroutine, when the third player
// joins. The scenario orchestrator hangs off this hook.
type OnFull func(*room.Room)

type Registry struct {
	log    *zap.Logger
	onFull OnFull
	grace  time.Duration

	mu          sync.Mutex
	rooms       map[string]*room.Room
	byTransport map[string]string
}

func New(log *zap.Logger, onFull OnFull, grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Registry{
		log:         log,
		onFull:      onFull,
		grace:       grace,
		rooms:       make(map[string]*room.Room),
		byTransport: make(map[string]string),
	}
}

// CreateRoom allocates a fresh private room and auto-joins the requester as
// its first occupant.
func (g *Registry) CreateRoom(transportID, name string) (*room.Room, *room.Player) {
	g.mu.Lock()
	id := g.newRoomID()
	rm := room.New(id, room.ModePrivate, g.log)
	g.rooms[id] = rm
	g.mu.Unlock()

	g.log.Info("room created",
		zap.String("room", id), zap.String("mode", string(room.ModePrivate)))

	p := g.join(rm, transportID, name)
	return rm, p
}

// JoinRoom adds the player to an existing room.
func (g *Registry) JoinRoom(roomID, transportID, name string) (*room.Room, *room.Player, error) {
	g.mu.Lock()
	rm, ok := g.rooms[roomID]
	g.mu.Unlock()
	if !ok || rm.Closed() {
		return nil, nil, ErrRoomNotFound
	}
	if rm.PlayerCount() >= room.Capacity {
		return nil, nil, ErrRoomFull
	}
	p := g.join(rm, transportID, name)
	if p == nil {
		return nil, nil, ErrRoomFull
	}
	return rm, p, nil
}

// JoinRandom puts the player into any random-mode room with a free slot,
// creating one when none exists. A transport already occupying a room stays
// where it is.
func (g *Registry) JoinRandom(transportID, name string) (*room.Room, *room.Player) {
	if rm, p, ok := g.RoomOf(transportID); ok {
		return rm, p
	}

	g.mu.Lock()
	var rm *room.Room
	for _, candidate := range g.rooms {
		if candidate.Mode == room.ModeRandom && !candidate.Closed() &&
			candidate.PlayerCount() < room.Capacity {
			rm = candidate
			break
		}
	}
	if rm == nil {
		id := g.newRoomID()
		rm = room.New(id, room.ModeRandom, g.log)
		g.rooms[id] = rm
		g.log.Info("room created",
			zap.String("room", id), zap.String("mode", string(room.ModeRandom)))
	}
	g.mu.Unlock()

	p := g.join(rm, transportID, name)
	return rm, p
}

// join performs the shared join bookkeeping and broadcasts, and kicks off the
// scenario when the roster fills.
func (g *Registry) join(rm *room.Room, transportID, name string) *room.Player {
	p, ok := rm.AddPlayer(transportID, name)
	if !ok {
		return nil
	}

	g.mu.Lock()
	g.byTransport[transportID] = rm.ID
	g.mu.Unlock()

	// Slot numbers shift when a lobby-stage leave renumbers the roster, so
	// read the current one under the room lock instead of caching p.Number.
	number, _ := rm.NumberOf(transportID)

	g.log.Info("player joined",
		zap.String("room", rm.ID), zap.String("name", name), zap.Int("slot", number))

	rm.SendTo(number, protocol.Event{Type: protocol.EvtPlayerAssigned, Payload: protocol.PlayerAssignedPayload{
		Number:   number,
		AllNames: rm.Names(),
		Scores:   rm.Scores(),
		RoomID:   rm.ID,
	}})
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdatePlayers, Payload: protocol.RosterPayload{AllNames: rm.Names()}})
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: rm.Scores()}})
	rm.SendTo(number, protocol.Event{Type: protocol.EvtChatHistory, Payload: protocol.ChatHistoryPayload{Messages: rm.ChatHistory()}})

	if rm.PlayerCount() == room.Capacity && !rm.Started() {
		rm.MarkStarted()
		go g.onFull(rm)
	}
	return p
}

// Leave removes the player behind transportID from its room. Emptying a room
// closes it, notifies clients and schedules deletion after the grace window.
func (g *Registry) Leave(transportID string) {
	g.mu.Lock()
	roomID, ok := g.byTransport[transportID]
	if ok {
		delete(g.byTransport, transportID)
	}
	rm := g.rooms[roomID]
	g.mu.Unlock()
	if !ok || rm == nil {
		return
	}

	removed, empty := rm.RemovePlayer(transportID)
	if removed != nil {
		g.log.Info("player left",
			zap.String("room", rm.ID), zap.String("name", removed.Name))
		rm.Broadcast(protocol.Event{Type: protocol.EvtUpdatePlayers, Payload: protocol.RosterPayload{AllNames: rm.Names()}})
		rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: rm.Scores()}})
	}

	if empty {
		rm.Close()
		rm.Broadcast(protocol.Event{Type: protocol.EvtRoomClosed})
		time.AfterFunc(g.grace, func() {
			g.mu.Lock()
			delete(g.rooms, rm.ID)
			g.mu.Unlock()
			g.log.Info("room deleted", zap.String("room", rm.ID))
		})
	}
}

// RoomOf resolves the sender's room without scanning the room table.
func (g *Registry) RoomOf(transportID string) (*room.Room, *room.Player, bool) {
	g.mu.Lock()
	roomID, ok := g.byTransport[transportID]
	rm := g.rooms[roomID]
	g.mu.Unlock()
	if !ok || rm == nil {
		return nil, nil, false
	}
	p := rm.PlayerByTransport(transportID)
	if p == nil {
		return nil, nil, false
	}
	return rm, p, true
}

// Get looks a room up by id.
func (g *Registry) Get(roomID string) (*room.Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rm, ok := g.rooms[roomID]
	return rm, ok
}

// RoomCount reports how many rooms are live, for the health endpoint.
func (g *Registry) RoomCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// newRoomID draws codes until one is unused. Caller holds g.mu.
func (g *Registry) newRoomID() string {
	for {
		id := "room_" + code(6)
		if _, taken := g.rooms[id]; !taken {
			return id
		}
	}
}

func code(n int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	out := make([]byte, n)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(err)
		}
		out[i] = charset[num.Int64()]
	}
	return string(out)
}

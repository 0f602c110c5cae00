// Package room holds the per-room entity: roster, game state, chat log and
// the scratch slots inbound handlers write into while the room's scenario
// goroutine waits on them. A room is the unit of isolation; two rooms never
// share mutable state.
package room

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/engine"
	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/region"
)

type Mode string

const (
	ModeRandom  Mode = "random"
	ModePrivate Mode = "private"
)

const (
	Capacity   = 3
	ChatLimit  = 200
	ChatMaxLen = 500

	// Outbox buffer per player; a full outbox drops the event, not the player.
	outboxSize = 64
)

type Player struct {
	TransportID string
	Name        string
	// Number is rewritten under the room mutex on a lobby-stage leave;
	// concurrent readers use Room.NumberOf.
	Number int
	Outbox chan protocol.Event
}

// NumericAnswer is one player's numeric submission with its latency.
type NumericAnswer struct {
	Value   int
	Elapsed time.Duration
}

type Room struct {
	ID   string
	Mode Mode

	log    *zap.Logger
	closed atomic.Bool

	mu      sync.Mutex
	players []*Player
	state   *engine.State
	scores  map[int]int // last computed snapshot, kept for broadcast only
	chat    []protocol.ChatMessage
	started bool

	pending         map[int]region.Name
	quizEligible    map[int]bool
	answers         map[int]int
	numericEligible map[int]bool
	numericAnswers  map[int]NumericAnswer
	numericStart    time.Time
}

func New(id string, mode Mode, log *zap.Logger) *Room {
	return &Room{
		ID:              id,
		Mode:            mode,
		log:             log.With(zap.String("room", id)),
		state:           engine.NewState(),
		scores:          map[int]int{1: 0, 2: 0, 3: 0},
		pending:         make(map[int]region.Name),
		quizEligible:    make(map[int]bool),
		answers:         make(map[int]int),
		numericEligible: make(map[int]bool),
		numericAnswers:  make(map[int]NumericAnswer),
	}
}

// AddPlayer appends a player at the next slot number. Returns false when the
// room is at capacity or the transport already occupies a slot.
func (r *Room) AddPlayer(transportID, name string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= Capacity {
		return nil, false
	}
	for _, p := range r.players {
		if p.TransportID == transportID {
			return nil, false
		}
	}

	p := &Player{
		TransportID: transportID,
		Name:        name,
		Number:      len(r.players) + 1,
		Outbox:      make(chan protocol.Event, outboxSize),
	}
	r.players = append(r.players, p)
	return p, true
}

// RemovePlayer drops the player behind transportID. Before the game starts
// the remaining roster is renumbered by join order; mid-game slot numbers are
// enduring identity and stay untouched. Returns the removed player and
// whether the room is now empty.
func (r *Room) RemovePlayer(transportID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.TransportID == transportID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, len(r.players) == 0
	}

	removed := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if !r.started {
		for i, p := range r.players {
			p.Number = i + 1
		}
	}
	return removed, len(r.players) == 0
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) PlayerByNumber(number int) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Number == number {
			return p
		}
	}
	return nil
}

func (r *Room) PlayerByTransport(transportID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.TransportID == transportID {
			return p
		}
	}
	return nil
}

// NumberOf resolves a transport's current slot number. Lobby-stage leaves
// renumber the roster in place, so code outside the room lock must go
// through here rather than cache Player.Number.
func (r *Room) NumberOf(transportID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.TransportID == transportID {
			return p.Number, true
		}
	}
	return 0, false
}

// Names returns the slot-number-to-display-name map broadcast to clients.
func (r *Room) Names() map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[int]string, len(r.players))
	for _, p := range r.players {
		names[p.Number] = p.Name
	}
	return names
}

func (r *Room) MarkStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Close flags the room so every suspended wait unwinds at its next check.
func (r *Room) Close() { r.closed.Store(true) }

func (r *Room) Closed() bool { return r.closed.Load() }

// WithState runs f with the engine state under the room lock.
func (r *Room) WithState(f func(s *engine.State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(r.state)
}

// ConfirmBase settles the player's base at full value and returns the
// refreshed score snapshot for broadcast.
func (r *Room) ConfirmBase(player int) map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SettleBase(player)
	r.scores = r.state.Scores()
	return copyScores(r.scores)
}

// RecomputeScores refreshes the cached score snapshot from current state and
// returns a copy.
func (r *Room) RecomputeScores() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = r.state.Scores()
	return copyScores(r.scores)
}

func (r *Room) Scores() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyScores(r.scores)
}

// RegionsSnapshot builds the full ownership/value/score payload under one
// lock acquisition so observers never see a half-applied mutation.
func (r *Room) RegionsSnapshot() protocol.RegionsPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = r.state.Scores()
	regions := make(map[int][]region.Name, engine.PlayerCount)
	for p, owned := range r.state.Owned {
		regions[p] = append([]region.Name{}, owned...)
	}
	values := make(map[region.Name]int, len(r.state.Values))
	for name, v := range r.state.Values {
		values[name] = v
	}
	return protocol.RegionsPayload{
		Regions: regions,
		Values:  values,
		Scores:  copyScores(r.scores),
	}
}

func copyScores(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Broadcast sends ev to every player. A player whose outbox is full misses
// the event; the writer goroutine catches up on the next one.
func (r *Room) Broadcast(ev protocol.Event) {
	r.mu.Lock()
	players := append([]*Player{}, r.players...)
	r.mu.Unlock()

	for _, p := range players {
		r.send(p, ev)
	}
}

// SendTo delivers ev to a single slot number, if still occupied.
func (r *Room) SendTo(number int, ev protocol.Event) {
	if p := r.PlayerByNumber(number); p != nil {
		r.send(p, ev)
	}
}

func (r *Room) send(p *Player, ev protocol.Event) {
	select {
	case p.Outbox <- ev:
	default:
		r.log.Warn("outbox full, dropping event",
			zap.String("transport", p.TransportID), zap.String("event", ev.Type))
	}
}

// AppendChat validates, stores and returns a chat message. Text is trimmed
// and truncated to ChatMaxLen; empty text is rejected. The log keeps the
// newest ChatLimit entries.
func (r *Room) AppendChat(name, text string) (protocol.ChatMessage, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return protocol.ChatMessage{}, false
	}
	if utf8.RuneCountInString(clean) > ChatMaxLen {
		// Cut on rune boundaries; byte slicing would split multi-byte text.
		clean = string([]rune(clean)[:ChatMaxLen])
	}

	msg := protocol.ChatMessage{
		ID:     uuid.NewString(),
		Name:   name,
		Text:   clean,
		SentAt: time.Now().UnixMilli(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = append(r.chat, msg)
	if len(r.chat) > ChatLimit {
		r.chat = r.chat[len(r.chat)-ChatLimit:]
	}
	return msg, true
}

func (r *Room) ChatHistory() []protocol.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.ChatMessage{}, r.chat...)
}

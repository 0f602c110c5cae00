package room

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/engine"
	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/region"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	return New("room_test", ModePrivate, zap.NewNop())
}

func TestAddPlayerAssignsSlotsInJoinOrder(t *testing.T) {
	r := newTestRoom(t)

	a, ok := r.AddPlayer("t1", "Alice")
	require.True(t, ok)
	b, ok := r.AddPlayer("t2", "Bob")
	require.True(t, ok)
	c, ok := r.AddPlayer("t3", "Cleo")
	require.True(t, ok)

	assert.Equal(t, 1, a.Number)
	assert.Equal(t, 2, b.Number)
	assert.Equal(t, 3, c.Number)
	assert.Equal(t, map[int]string{1: "Alice", 2: "Bob", 3: "Cleo"}, r.Names())

	_, ok = r.AddPlayer("t4", "Dana")
	assert.False(t, ok, "room over capacity")
}

func TestAddPlayerRejectsDuplicateTransport(t *testing.T) {
	r := newTestRoom(t)
	_, ok := r.AddPlayer("t1", "Alice")
	require.True(t, ok)
	_, ok = r.AddPlayer("t1", "Alice again")
	assert.False(t, ok)
}

func TestRemovePlayerRenumbersOnlyBeforeStart(t *testing.T) {
	r := newTestRoom(t)
	r.AddPlayer("t1", "Alice")
	r.AddPlayer("t2", "Bob")
	r.AddPlayer("t3", "Cleo")

	// Lobby stage: removing Bob compacts the roster.
	removed, empty := r.RemovePlayer("t2")
	require.NotNil(t, removed)
	assert.False(t, empty)
	assert.Equal(t, map[int]string{1: "Alice", 2: "Cleo"}, r.Names())

	// Mid-game: numbers are enduring identity.
	r.MarkStarted()
	_, _ = r.RemovePlayer("t1")
	assert.Equal(t, map[int]string{2: "Cleo"}, r.Names())
}

func TestRemoveLastPlayerReportsEmpty(t *testing.T) {
	r := newTestRoom(t)
	r.AddPlayer("t1", "Alice")
	_, empty := r.RemovePlayer("t1")
	assert.True(t, empty)
}

func TestBroadcastReachesEveryPlayer(t *testing.T) {
	r := newTestRoom(t)
	a, _ := r.AddPlayer("t1", "Alice")
	b, _ := r.AddPlayer("t2", "Bob")

	r.Broadcast(protocol.Event{Type: protocol.EvtPhaseChange})

	for _, p := range []*Player{a, b} {
		select {
		case ev := <-p.Outbox:
			assert.Equal(t, protocol.EvtPhaseChange, ev.Type)
		default:
			t.Fatalf("player %d received nothing", p.Number)
		}
	}
}

func TestSendToTargetsOneSlot(t *testing.T) {
	r := newTestRoom(t)
	a, _ := r.AddPlayer("t1", "Alice")
	b, _ := r.AddPlayer("t2", "Bob")

	r.SendTo(2, protocol.Event{Type: protocol.EvtAvailableRegions})

	assert.Empty(t, a.Outbox)
	require.Len(t, b.Outbox, 1)
}

func TestFullOutboxDropsEventNotPlayer(t *testing.T) {
	r := newTestRoom(t)
	a, _ := r.AddPlayer("t1", "Alice")
	for i := 0; i < outboxSize; i++ {
		r.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores})
	}

	r.Broadcast(protocol.Event{Type: protocol.EvtPhaseChange})

	assert.Len(t, a.Outbox, outboxSize)
	assert.Equal(t, 1, r.PlayerCount())
}

func TestChatTrimsTruncatesAndBounds(t *testing.T) {
	r := newTestRoom(t)

	_, ok := r.AppendChat("Alice", "   \t  ")
	assert.False(t, ok, "whitespace-only text rejected")

	long := strings.Repeat("x", ChatMaxLen+100)
	msg, ok := r.AppendChat("Alice", "  "+long)
	require.True(t, ok)
	assert.Len(t, msg.Text, ChatMaxLen)
	assert.NotEmpty(t, msg.ID)

	for i := 0; i < ChatLimit+25; i++ {
		r.AppendChat("Bob", "hello")
	}
	history := r.ChatHistory()
	assert.Len(t, history, ChatLimit)
	// FIFO eviction: the oversized first message is long gone.
	assert.Equal(t, "hello", history[0].Text)
}

func TestChatTruncatesByRunesNotBytes(t *testing.T) {
	r := newTestRoom(t)

	long := strings.Repeat("ř", ChatMaxLen+100)
	msg, ok := r.AppendChat("Alice", long)
	require.True(t, ok)
	assert.Equal(t, ChatMaxLen, utf8.RuneCountInString(msg.Text))
	assert.True(t, utf8.ValidString(msg.Text), "truncation must not split a rune")

	short := strings.Repeat("ř", ChatMaxLen) // over 500 bytes, exactly 500 runes
	msg, ok = r.AppendChat("Alice", short)
	require.True(t, ok)
	assert.Equal(t, short, msg.Text)
}

func TestNumberOfTracksLobbyRenumbering(t *testing.T) {
	r := newTestRoom(t)
	r.AddPlayer("t1", "Alice")
	r.AddPlayer("t2", "Bob")
	r.AddPlayer("t3", "Cleo")

	// Concurrent slot lookups while a lobby-stage leave renumbers the roster.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_, _ = r.NumberOf("t3")
		}
	}()
	r.RemovePlayer("t2")
	<-done

	n, ok := r.NumberOf("t3")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = r.NumberOf("t2")
	assert.False(t, ok)
}

func TestSelectionSlotIsLastWriterWins(t *testing.T) {
	r := newTestRoom(t)

	r.SubmitSelection(1, region.Alpha)
	r.SubmitSelection(1, region.Sigma)

	got, ok := r.TakeSelection(1)
	require.True(t, ok)
	assert.Equal(t, region.Sigma, got)

	_, ok = r.TakeSelection(1)
	assert.False(t, ok, "slot cleared on read")
}

func TestQuizWindowIgnoresIneligibleAndDuplicates(t *testing.T) {
	r := newTestRoom(t)
	r.BeginQuiz([]int{1, 2})

	r.SubmitAnswer(1, 2)
	r.SubmitAnswer(1, 0) // duplicate
	r.SubmitAnswer(3, 1) // not eligible

	assert.Equal(t, map[int]int{1: 2}, r.QuizAnswers())

	r.EndQuiz()
	r.SubmitAnswer(2, 1) // window closed
	assert.Equal(t, map[int]int{1: 2}, r.QuizAnswers())
}

func TestNumericWindowRecordsElapsedTime(t *testing.T) {
	r := newTestRoom(t)
	r.BeginNumeric([]int{1, 2, 3})

	r.SubmitNumeric(2, 1961)
	r.SubmitNumeric(2, 4) // duplicate ignored

	answers := r.NumericAnswers()
	require.Contains(t, answers, 2)
	assert.Equal(t, 1961, answers[2].Value)
	assert.GreaterOrEqual(t, answers[2].Elapsed, time.Duration(0))
	assert.Len(t, answers, 1)
}

func TestRecomputeScoresMatchesSnapshot(t *testing.T) {
	r := newTestRoom(t)
	r.WithState(func(s *engine.State) {
		s.AssignBase(1, region.Rho)
		s.SettleBase(1)
		s.Capture(2, region.Mu, engine.ValueExpansion)
	})

	scores := r.RecomputeScores()
	snap := r.RegionsSnapshot()
	assert.Equal(t, scores, snap.Scores)
	assert.Equal(t, engine.ValueBase, scores[1])
	assert.Equal(t, engine.ValueExpansion, scores[2])
}

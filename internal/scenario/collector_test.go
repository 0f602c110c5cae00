package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/quiz"
	"github.com/jhavelka/conquest-backend/internal/region"
	"github.com/jhavelka/conquest-backend/internal/room"
)

func fastTimings() Timings {
	return Timings{
		Poll:          time.Millisecond,
		TurnTimeout:   40 * time.Millisecond,
		QuizWindow:    40 * time.Millisecond,
		NumericWindow: 40 * time.Millisecond,
		GameIntro:     2 * time.Millisecond,
		Settle:        10 * time.Millisecond,
		PlanIntro:     2 * time.Millisecond,
		RoundIntro:    2 * time.Millisecond,
		Reveal:        2 * time.Millisecond,
		TurnGap:       2 * time.Millisecond,
		Pin:           2 * time.Millisecond,
		DuelLeadIn:    2 * time.Millisecond,
		DuelPause:     2 * time.Millisecond,
		TowerFall:     2 * time.Millisecond,
		BaseMini:      2 * time.Millisecond,
	}
}

// One question per bank keeps quiz outcomes deterministic: option 0 is
// always right and 100 is always the numeric answer.
func newTestOrchestrator() *Orchestrator {
	questions := []quiz.Question{{Text: "pick a", Options: []string{"a", "b", "c"}, Correct: 0}}
	numeric := []quiz.NumericQuestion{{Text: "how many", Answer: 100}}
	return New(zap.NewNop(), questions, numeric, fastTimings())
}

func fullRoom(t *testing.T) *room.Room {
	t.Helper()
	rm := room.New("room_test", room.ModePrivate, zap.NewNop())
	for i, name := range []string{"Alice", "Bob", "Cleo"} {
		_, ok := rm.AddPlayer([]string{"t1", "t2", "t3"}[i], name)
		require.True(t, ok)
	}
	rm.MarkStarted()
	return rm
}

func TestAwaitSelectionTakesFirstLegalSubmission(t *testing.T) {
	o := newTestOrchestrator()
	rm := fullRoom(t)
	legal := []region.Name{region.Alpha, region.Mu}

	go func() {
		time.Sleep(5 * time.Millisecond)
		rm.SubmitSelection(1, region.Mu)
	}()

	sel, alive := o.awaitSelection(rm, 1, legal, 100*time.Millisecond)
	require.True(t, alive)
	assert.Equal(t, region.Mu, sel)
}

func TestAwaitSelectionIgnoresIllegalSubmission(t *testing.T) {
	o := newTestOrchestrator()
	rm := fullRoom(t)
	legal := []region.Name{region.Alpha}

	rm.SubmitSelection(1, region.Omega) // not in the legal set

	sel, alive := o.awaitSelection(rm, 1, legal, 30*time.Millisecond)
	require.True(t, alive)
	// The illegal claim is dropped and the timeout fallback kicks in.
	assert.Equal(t, region.Alpha, sel)
}

func TestAwaitSelectionTimeoutDrawsFromLegalSet(t *testing.T) {
	o := newTestOrchestrator()
	rm := fullRoom(t)
	legal := []region.Name{region.Kappa, region.Lambda, region.Omega}

	sel, alive := o.awaitSelection(rm, 2, legal, 20*time.Millisecond)
	require.True(t, alive)
	assert.Contains(t, legal, sel, "fallback must come from the legal set")
}

func TestAwaitSelectionEmptyLegalSetResolvesEmpty(t *testing.T) {
	o := newTestOrchestrator()
	rm := fullRoom(t)

	sel, alive := o.awaitSelection(rm, 2, nil, 20*time.Millisecond)
	require.True(t, alive)
	assert.Empty(t, sel)
}

func TestAwaitSelectionResolvesPromptlyOnClose(t *testing.T) {
	o := newTestOrchestrator()
	rm := fullRoom(t)

	go func() {
		time.Sleep(5 * time.Millisecond)
		rm.Close()
	}()

	start := time.Now()
	sel, alive := o.awaitSelection(rm, 1, []region.Name{region.Alpha}, 5*time.Second)
	assert.False(t, alive)
	assert.Empty(t, sel)
	assert.Less(t, time.Since(start), time.Second, "closure must not wait out the timeout")
}

func TestSleepAliveCompletesWhenRoomStaysOpen(t *testing.T) {
	rm := fullRoom(t)
	assert.True(t, sleepAlive(rm, time.Millisecond, 10*time.Millisecond))
}

func TestSleepAliveCutShortByClose(t *testing.T) {
	rm := fullRoom(t)
	go func() {
		time.Sleep(5 * time.Millisecond)
		rm.Close()
	}()

	start := time.Now()
	assert.False(t, sleepAlive(rm, time.Millisecond, 5*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

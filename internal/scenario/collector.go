package scenario

import (
	"time"

	"github.com/samber/lo"

	"github.com/jhavelka/conquest-backend/internal/region"
	"github.com/jhavelka/conquest-backend/internal/room"
)

// sleepAlive waits d in poll-sized steps, bailing out as soon as the room
// closes. Returns false when the wait was cut short. This is the single
// cancellable-delay primitive behind every pacing pause.
func sleepAlive(rm *room.Room, poll, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if rm.Closed() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		time.Sleep(min(poll, remaining))
	}
}

// awaitSelection resolves the player's next region claim: the first
// submission inside the legal set wins, a timeout falls back to a uniformly
// random legal region, and room closure resolves to "" immediately. The
// second return is false only when the room closed mid-wait.
//
// With a non-empty legal set the result is never "" — a missed deadline is
// represented to clients as a forced random choice, not an error.
//
// Callers clear the player's pending slot before sending the prompt, so a
// stale claim from an earlier phase never satisfies this wait.
func (o *Orchestrator) awaitSelection(rm *room.Room, player int, legal []region.Name, timeout time.Duration) (region.Name, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if rm.Closed() {
			return "", false
		}

		if sel, ok := rm.TakeSelection(player); ok {
			if lo.Contains(legal, sel) {
				return sel, true
			}
			// Illegal claim: silently dropped, keep waiting.
		}

		if time.Now().After(deadline) {
			if len(legal) == 0 {
				return "", true
			}
			return legal[o.intn(len(legal))], true
		}
		time.Sleep(o.t.Poll)
	}
}

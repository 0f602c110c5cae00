package room

import (
	"time"

	"github.com/jhavelka/conquest-backend/internal/region"
)

// Scratch state for in-flight prompts. Inbound handlers write here;
// the room's scenario goroutine is the only reader. Writes are
// last-writer-wins on a per-player slot.

// SubmitSelection records a region claim for the player. Overwrites any
// earlier unconsumed claim.
func (r *Room) SubmitSelection(player int, reg region.Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[player] = reg
}

// TakeSelection reads and clears the player's pending claim.
func (r *Room) TakeSelection(player int) (region.Name, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.pending[player]
	if ok {
		delete(r.pending, player)
	}
	return reg, ok
}

// ClearSelection discards a stale claim left over from an earlier prompt.
func (r *Room) ClearSelection(player int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, player)
}

// BeginQuiz opens a multiple-choice collection window for the given players.
func (r *Room) BeginQuiz(eligible []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizEligible = make(map[int]bool, len(eligible))
	for _, p := range eligible {
		r.quizEligible[p] = true
	}
	r.answers = make(map[int]int)
}

// SubmitAnswer stores a choice index. Answers from ineligible players and
// duplicates from players who already answered are ignored.
func (r *Room) SubmitAnswer(player, answerIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.quizEligible[player] {
		return
	}
	if _, done := r.answers[player]; done {
		return
	}
	r.answers[player] = answerIndex
}

// QuizAnswers returns a copy of the answers collected so far.
func (r *Room) QuizAnswers() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]int, len(r.answers))
	for p, a := range r.answers {
		out[p] = a
	}
	return out
}

// EndQuiz closes the collection window.
func (r *Room) EndQuiz() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizEligible = make(map[int]bool)
}

// BeginNumeric opens a numeric window and starts the answer clock.
func (r *Room) BeginNumeric(eligible []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numericEligible = make(map[int]bool, len(eligible))
	for _, p := range eligible {
		r.numericEligible[p] = true
	}
	r.numericAnswers = make(map[int]NumericAnswer)
	r.numericStart = time.Now()
}

// SubmitNumeric stores a numeric answer with its elapsed time. Only the
// first answer per eligible player counts.
func (r *Room) SubmitNumeric(player, value int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.numericEligible[player] {
		return
	}
	if _, done := r.numericAnswers[player]; done {
		return
	}
	r.numericAnswers[player] = NumericAnswer{
		Value:   value,
		Elapsed: time.Since(r.numericStart),
	}
}

func (r *Room) NumericAnswers() map[int]NumericAnswer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]NumericAnswer, len(r.numericAnswers))
	for p, a := range r.numericAnswers {
		out[p] = a
	}
	return out
}

func (r *Room) EndNumeric() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numericEligible = make(map[int]bool)
}

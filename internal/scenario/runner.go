package scenario

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/room"
)

// runMultipleChoice asks one random multiple-choice question, collects
// answers from the given players over the full quiz window (scoring must see
// everyone's answer, not just the fastest), and returns the players who got
// it right. Everyone receives the prompt; non-participants get it with
// CanAnswer false so they can spectate.
func (o *Orchestrator) runMultipleChoice(rm *room.Room, participants []int) ([]int, bool) {
	q := o.questions[o.intn(len(o.questions))]

	isDuel := len(participants) == 2
	var attacker, defender int
	var attackerName, defenderName string
	if isDuel {
		attacker, defender = participants[0], participants[1]
		names := rm.Names()
		attackerName, defenderName = names[attacker], names[defender]
	}

	rm.BeginQuiz(participants)
	for number := range rm.Names() {
		rm.SendTo(number, protocol.Event{Type: protocol.EvtMultipleChoice, Payload: protocol.MultipleChoicePayload{
			Question:     q.Text,
			Options:      q.Options,
			TimeLimit:    int(o.t.QuizWindow.Seconds()),
			Attacker:     attacker,
			Defender:     defender,
			AttackerName: attackerName,
			DefenderName: defenderName,
			CanAnswer:    lo.Contains(participants, number),
		}})
	}

	if !sleepAlive(rm, o.t.Poll, o.t.QuizWindow) {
		rm.EndQuiz()
		return nil, false
	}

	answers := rm.QuizAnswers()
	rm.EndQuiz()

	var correct []int
	for _, p := range participants {
		if a, ok := answers[p]; ok && a == q.Correct {
			correct = append(correct, p)
		}
	}
	sort.Ints(correct)

	o.log.Debug("multiple choice resolved",
		zap.String("room", rm.ID), zap.Ints("correct", correct))

	rm.Broadcast(protocol.Event{Type: protocol.EvtMultipleChoiceResults, Payload: protocol.MultipleChoiceResultsPayload{
		CorrectAnswer: q.Correct,
		Answers:       answers,
	}})
	return correct, true
}

// collectNumeric runs the shared half of both numeric variants: broadcast
// already done by the caller, wait the window, fill in silent players with a
// zero guess at full time, rank by closest-then-fastest.
func (o *Orchestrator) collectNumeric(rm *room.Room, participants []int, correctAnswer int) ([]protocol.NumericAnswerEntry, int, bool) {
	if !sleepAlive(rm, o.t.Poll, o.t.NumericWindow) {
		rm.EndNumeric()
		return nil, 0, false
	}

	answers := rm.NumericAnswers()
	rm.EndNumeric()
	submitted := len(answers)

	names := rm.Names()
	entries := make([]protocol.NumericAnswerEntry, 0, len(participants))
	for _, p := range participants {
		a, ok := answers[p]
		if !ok {
			a = room.NumericAnswer{Value: 0, Elapsed: o.t.NumericWindow}
		}
		entries = append(entries, protocol.NumericAnswerEntry{
			Player: p,
			Value:  a.Value,
			TimeMs: a.Elapsed.Milliseconds(),
			Name:   names[p],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := diff(entries[i].Value, correctAnswer), diff(entries[j].Value, correctAnswer)
		if di != dj {
			return di < dj
		}
		return entries[i].TimeMs < entries[j].TimeMs
	})

	return entries, submitted, true
}

// runNumericDuel resolves a two-player tiebreak. It always produces a
// winner: a silent player is treated as guessing 0 at the deadline.
func (o *Orchestrator) runNumericDuel(rm *room.Room, attacker, defender int) (int, bool) {
	nq := o.numeric[o.intn(len(o.numeric))]
	names := rm.Names()

	rm.BeginNumeric([]int{attacker, defender})
	rm.Broadcast(protocol.Event{Type: protocol.EvtNumericDuel, Payload: protocol.NumericQuestionPayload{
		Question:     nq.Text,
		TimeLimit:    int(o.t.NumericWindow.Seconds()),
		Attacker:     attacker,
		Defender:     defender,
		AttackerName: names[attacker],
		DefenderName: names[defender],
	}})

	entries, _, alive := o.collectNumeric(rm, []int{attacker, defender}, nq.Answer)
	if !alive {
		return 0, false
	}
	winner := entries[0].Player

	rm.Broadcast(protocol.Event{Type: protocol.EvtNumericDuelResults, Payload: protocol.NumericResultsPayload{
		CorrectAnswer: nq.Answer,
		Attacker:      attacker,
		Defender:      defender,
		Answers:       entries,
	}})
	return winner, true
}

// runNumericTriple resolves conquest priority among all three players.
// Returns 0 when nobody submitted anything, in which case the round consumes
// no region.
func (o *Orchestrator) runNumericTriple(rm *room.Room) (int, bool) {
	nq := o.numeric[o.intn(len(o.numeric))]
	participants := []int{1, 2, 3}

	rm.BeginNumeric(participants)
	rm.Broadcast(protocol.Event{Type: protocol.EvtNumericQuestion, Payload: protocol.NumericQuestionPayload{
		Question:  nq.Text,
		TimeLimit: int(o.t.NumericWindow.Seconds()),
	}})

	entries, submitted, alive := o.collectNumeric(rm, participants, nq.Answer)
	if !alive {
		return 0, false
	}

	winner := 0
	if submitted > 0 {
		winner = entries[0].Player
	}

	rm.Broadcast(protocol.Event{Type: protocol.EvtNumericResults, Payload: protocol.NumericResultsPayload{
		CorrectAnswer: nq.Answer,
		Answers:       entries,
	}})
	return winner, true
}

func diff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Package scenario drives a full room from settlement to game over. One
// goroutine per room runs the phase sequence; within a room exactly one
// prompt or pause is in flight at a time. The room's closed flag is the only
// cancellation signal and is checked at every suspension boundary, so a
// teardown mid-quiz unwinds quietly with no further broadcasts.
package scenario

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jhavelka/conquest-backend/internal/engine"
	"github.com/jhavelka/conquest-backend/internal/protocol"
	"github.com/jhavelka/conquest-backend/internal/quiz"
	"github.com/jhavelka/conquest-backend/internal/region"
	"github.com/jhavelka/conquest-backend/internal/room"
)

type Orchestrator struct {
	log       *zap.Logger
	questions []quiz.Question
	numeric   []quiz.NumericQuestion
	t         Timings

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(log *zap.Logger, questions []quiz.Question, numeric []quiz.NumericQuestion, t Timings) *Orchestrator {
	return &Orchestrator{
		log:       log,
		questions: questions,
		numeric:   numeric,
		t:         t,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// intn is a goroutine-safe rand.Intn; many rooms share one orchestrator.
func (o *Orchestrator) intn(n int) int {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	return o.rng.Intn(n)
}

func (o *Orchestrator) newPlan() engine.Plan {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	return engine.NewPlan(o.rng)
}

// Run executes the full scenario for a freshly filled room. Every phase
// returns false if the room closed underneath it, at which point the
// scenario exits with no further state mutation.
func (o *Orchestrator) Run(rm *room.Room) {
	log := o.log.With(zap.String("room", rm.ID))
	log.Info("scenario starting")

	if !o.settlement(rm) {
		log.Info("scenario abandoned", zap.String("phase", "settlement"))
		return
	}
	if !o.expansion(rm) {
		log.Info("scenario abandoned", zap.String("phase", "expansion"))
		return
	}
	if !o.conquest(rm) {
		log.Info("scenario abandoned", zap.String("phase", "conquest"))
		return
	}
	if !o.battle(rm) {
		log.Info("scenario abandoned", zap.String("phase", "battle"))
		return
	}
	log.Info("scenario finished")
}

// settlement deals each player one of the three home regions at value 0;
// clients confirm with confirm-base-settled, which raises the base to full
// value (see Room.ConfirmBase).
func (o *Orchestrator) settlement(rm *room.Room) bool {
	if rm.Closed() {
		return false
	}

	homes := append([]region.Name{}, region.Homes...)
	o.rngMu.Lock()
	o.rng.Shuffle(len(homes), func(i, j int) { homes[i], homes[j] = homes[j], homes[i] })
	o.rngMu.Unlock()

	bases := make(map[int]region.Name, engine.PlayerCount)
	rm.WithState(func(s *engine.State) {
		for p := 1; p <= engine.PlayerCount; p++ {
			s.AssignBase(p, homes[p-1])
			bases[p] = homes[p-1]
		}
	})

	snap := rm.RegionsSnapshot()
	rm.Broadcast(protocol.Event{Type: protocol.EvtStartGame, Payload: protocol.StartGamePayload{
		Bases:   bases,
		Regions: snap.Regions,
		Values:  snap.Values,
	}})
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: snap.Scores}})

	if !sleepAlive(rm, o.t.Poll, o.t.GameIntro) {
		return false
	}
	rm.Broadcast(protocol.Event{Type: protocol.EvtBasesSettle})
	return sleepAlive(rm, o.t.Poll, o.t.Settle)
}

// expansion runs six rounds of pick-then-quiz. A player keeps a picked
// region only by answering the round's question correctly. The phase stops
// early once more than 12 of the 15 regions are occupied.
func (o *Orchestrator) expansion(rm *room.Room) bool {
	if rm.Closed() {
		return false
	}

	plan := o.newPlan()
	rm.Broadcast(protocol.Event{Type: protocol.EvtExpansionIntro, Payload: protocol.PlanPayload{Plan: plan}})
	if !sleepAlive(rm, o.t.Poll, o.t.PlanIntro) {
		return false
	}

	for round := 1; round <= engine.PlanRounds; round++ {
		if rm.Closed() {
			return false
		}
		order := plan[round-1]
		rm.Broadcast(protocol.Event{Type: protocol.EvtStartExpansionRound, Payload: protocol.RoundPayload{
			Round: round,
			Order: order,
		}})

		lastSelections, ok := o.expansionTurns(rm, round, order)
		if !ok {
			return false
		}

		correct, ok := o.runMultipleChoice(rm, []int{1, 2, 3})
		if !ok {
			return false
		}
		if !sleepAlive(rm, o.t.Poll, o.t.Reveal) {
			return false
		}

		awarded := false
		rm.WithState(func(s *engine.State) {
			for _, p := range correct {
				if sel, picked := lastSelections[p]; picked {
					s.Capture(p, sel, engine.ValueExpansion)
					awarded = true
				}
			}
		})
		if awarded {
			rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: rm.RecomputeScores()}})
		}
		rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateRegions, Payload: rm.RegionsSnapshot()})

		occupied := 0
		rm.WithState(func(s *engine.State) { occupied = s.OccupiedCount() })
		if occupied > 12 {
			o.log.Info("expansion stopped early",
				zap.String("room", rm.ID), zap.Int("occupied", occupied))
			break
		}
	}
	return true
}

// expansionTurns lets each player in order pick one legal region. Regions
// claimed earlier in the same round are off the table even before the quiz
// decides whether the claim sticks.
func (o *Orchestrator) expansionTurns(rm *room.Room, round int, order []int) (map[int]region.Name, bool) {
	claimed := make(map[region.Name]bool)
	lastSelections := make(map[int]region.Name)

	for _, player := range order {
		if rm.Closed() {
			return nil, false
		}

		rm.Broadcast(protocol.Event{Type: protocol.EvtPlayerTurn, Payload: protocol.PlayerTurnPayload{
			Player:   player,
			Round:    round,
			TimeLeft: int(o.t.TurnTimeout.Seconds()),
		}})

		var legal []region.Name
		rm.WithState(func(s *engine.State) {
			legal = s.AvailableForExpansion(player, claimed)
		})
		rm.ClearSelection(player)
		rm.SendTo(player, protocol.Event{Type: protocol.EvtAvailableRegions, Payload: protocol.AvailableRegionsPayload{Regions: legal}})

		sel, alive := o.awaitSelection(rm, player, legal, o.t.TurnTimeout)
		if !alive {
			return nil, false
		}
		if sel == "" {
			continue
		}

		claimed[sel] = true
		lastSelections[player] = sel
		rm.Broadcast(protocol.Event{Type: protocol.EvtPlayerSelectedRegion, Payload: protocol.SelectionPayload{
			Player: player,
			Region: sel,
		}})
		if !sleepAlive(rm, o.t.Poll, o.t.TurnGap) {
			return nil, false
		}
	}
	return lastSelections, true
}

// conquest repeats numeric-priority rounds until every region is owned. A
// round where nobody answers consumes no region.
func (o *Orchestrator) conquest(rm *room.Room) bool {
	if rm.Closed() {
		return false
	}
	rm.Broadcast(protocol.Event{Type: protocol.EvtPhaseChange, Payload: protocol.PhasePayload{Phase: "conquest"}})

	for round := 1; ; round++ {
		occupied := 0
		rm.WithState(func(s *engine.State) { occupied = s.OccupiedCount() })
		if occupied >= region.Count() {
			return true
		}
		if rm.Closed() {
			return false
		}

		rm.Broadcast(protocol.Event{Type: protocol.EvtConquestIntro, Payload: protocol.ConquestIntroPayload{
			Round: round,
			Title: "Conquest",
		}})
		if !sleepAlive(rm, o.t.Poll, o.t.RoundIntro) {
			return false
		}

		winner, alive := o.runNumericTriple(rm)
		if !alive {
			return false
		}
		if winner == 0 {
			continue
		}

		if !sleepAlive(rm, o.t.Poll, o.t.Reveal) {
			return false
		}

		var available []region.Name
		rm.WithState(func(s *engine.State) { available = s.AvailableForConquest() })
		rm.ClearSelection(winner)
		rm.SendTo(winner, protocol.Event{Type: protocol.EvtAvailableRegions, Payload: protocol.AvailableRegionsPayload{Regions: available}})

		sel, alive := o.awaitSelection(rm, winner, available, o.t.TurnTimeout)
		if !alive {
			return false
		}
		if sel == "" {
			continue
		}

		rm.Broadcast(protocol.Event{Type: protocol.EvtPlayerSelectedRegion, Payload: protocol.SelectionPayload{
			Player: winner,
			Region: sel,
		}})
		rm.WithState(func(s *engine.State) { s.Capture(winner, sel, engine.ValueConquest) })
		if !sleepAlive(rm, o.t.Poll, o.t.Pin) {
			return false
		}
		snap := rm.RegionsSnapshot()
		rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateRegions, Payload: snap})
		rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: snap.Scores}})
	}
}

// battle runs six rounds of three attacker turns. Total ownership ends the
// game on the spot; otherwise the game ends after round six. Either way a
// ranked report goes out.
func (o *Orchestrator) battle(rm *room.Room) bool {
	if rm.Closed() {
		return false
	}

	plan := o.newPlan()
	rm.Broadcast(protocol.Event{Type: protocol.EvtBattleIntro, Payload: protocol.PlanPayload{
		Plan:  plan,
		Title: "Battles",
	}})

	for round := 1; round <= engine.PlanRounds; round++ {
		if rm.Closed() {
			return false
		}
		rm.Broadcast(protocol.Event{Type: protocol.EvtStartBattleRound, Payload: protocol.RoundPayload{
			Round: round,
			Order: plan[round-1],
		}})

		for stick := 1; stick <= engine.PlayerCount; stick++ {
			if rm.Closed() {
				return false
			}
			attacker := plan[round-1][stick-1]

			rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateBattleStick, Payload: protocol.BattleStickPayload{
				Round:  round,
				Stick:  stick,
				Player: attacker,
			}})

			winner := 0
			rm.WithState(func(s *engine.State) { winner = s.Winner() })
			if winner != 0 {
				o.gameOver(rm)
				return true
			}

			defender, target, ok, alive := o.battleClaim(rm, attacker)
			if !alive {
				return false
			}
			if !ok {
				continue
			}

			if !o.battleOnRegion(rm, attacker, defender, target) {
				return false
			}
			if !sleepAlive(rm, o.t.Poll, o.t.Pin) {
				return false
			}
		}
	}

	o.gameOver(rm)
	return true
}

// battleClaim has the attacker pick an adjacent enemy region. Returns
// ok=false when the attacker has no legal attack and the turn is skipped.
func (o *Orchestrator) battleClaim(rm *room.Room, attacker int) (defender int, target region.Name, ok, alive bool) {
	var enemy []region.Name
	rm.WithState(func(s *engine.State) { enemy = s.AvailableEnemyRegions(attacker) })
	if len(enemy) == 0 {
		o.log.Debug("no legal attack, turn skipped",
			zap.String("room", rm.ID), zap.Int("attacker", attacker))
		return 0, "", false, true
	}

	rm.ClearSelection(attacker)
	rm.SendTo(attacker, protocol.Event{Type: protocol.EvtAvailableRegions, Payload: protocol.AvailableRegionsPayload{Regions: enemy}})

	sel, stillAlive := o.awaitSelection(rm, attacker, enemy, o.t.TurnTimeout)
	if !stillAlive {
		return 0, "", false, false
	}

	rm.Broadcast(protocol.Event{Type: protocol.EvtPlayerSelectedRegion, Payload: protocol.SelectionPayload{
		Player: attacker,
		Region: sel,
	}})
	if !sleepAlive(rm, o.t.Poll, o.t.Pin) {
		return 0, "", false, false
	}

	rm.WithState(func(s *engine.State) { defender = s.OwnerOf(sel) })
	if defender == 0 || defender == attacker {
		// Ownership changed while the pin was showing; nothing to fight over.
		return 0, "", false, true
	}
	return defender, sel, true, true
}

func (o *Orchestrator) battleOnRegion(rm *room.Room, attacker, defender int, target region.Name) bool {
	isBase := false
	rm.WithState(func(s *engine.State) { isBase = s.Bases[defender] == target })

	if isBase {
		return o.baseContest(rm, attacker, defender)
	}
	return o.fieldBattle(rm, attacker, defender, target)
}

// fieldBattle resolves a non-base region with a single duel quiz: one
// correct answer takes the region outright, a both-correct tie goes to a
// numeric duel, no correct answers changes nothing.
func (o *Orchestrator) fieldBattle(rm *room.Room, attacker, defender int, target region.Name) bool {
	correct, alive := o.runMultipleChoice(rm, []int{attacker, defender})
	if !alive {
		return false
	}
	if !sleepAlive(rm, o.t.Poll, o.t.Reveal) {
		return false
	}

	winner := 0
	switch {
	case len(correct) == 1:
		winner = correct[0]
	case len(correct) > 1:
		if !sleepAlive(rm, o.t.Poll, o.t.DuelLeadIn) {
			return false
		}
		w, duelAlive := o.runNumericDuel(rm, attacker, defender)
		if !duelAlive {
			return false
		}
		winner = w
		if !sleepAlive(rm, o.t.Poll, o.t.DuelPause) {
			return false
		}
	}

	switch winner {
	case attacker:
		rm.WithState(func(s *engine.State) { s.Capture(attacker, target, engine.ValueCaptured) })
	case defender:
		rm.Broadcast(protocol.Event{Type: protocol.EvtBattleDefended})
		rm.WithState(func(s *engine.State) { s.AwardDefense(defender) })
	}

	if !sleepAlive(rm, o.t.Poll, o.t.Pin) {
		return false
	}
	snap := rm.RegionsSnapshot()
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateRegions, Payload: snap})
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: snap.Scores}})
	return true
}

// baseContest besieges the defender's base. The attacker must keep winning
// contested quizzes: each win costs the defender a life, and at zero lives
// the whole holding transfers. Any defender win ends the siege with a +100
// bonus; a round with no correct answer ends it with no bonus.
func (o *Orchestrator) baseContest(rm *room.Room, attacker, defender int) bool {
	lives := 0
	rm.WithState(func(s *engine.State) { lives = s.Lives[defender] })
	rm.Broadcast(protocol.Event{Type: protocol.EvtShowBaseMini, Payload: protocol.BaseMiniPayload{
		Attacker: attacker,
		Defender: defender,
		Lives:    lives,
	}})
	if !sleepAlive(rm, o.t.Poll, o.t.BaseMini) {
		return false
	}

	captured := false
	for !captured {
		if rm.Closed() {
			return false
		}

		correct, alive := o.runMultipleChoice(rm, []int{attacker, defender})
		if !alive {
			return false
		}

		switch {
		case len(correct) == 1 && correct[0] == attacker:
			if !sleepAlive(rm, o.t.Poll, o.t.Reveal) {
				return false
			}
			done, alive := o.attackerHit(rm, attacker, defender)
			if !alive {
				return false
			}
			captured = done

		case len(correct) == 1 && correct[0] == defender:
			if !sleepAlive(rm, o.t.Poll, o.t.DuelPause) {
				return false
			}
			rm.Broadcast(protocol.Event{Type: protocol.EvtBattleDefended})
			rm.WithState(func(s *engine.State) { s.AwardDefense(defender) })
			captured = true

		case len(correct) > 1:
			if !sleepAlive(rm, o.t.Poll, o.t.Reveal) {
				return false
			}
			duelWinner, alive := o.runNumericDuel(rm, attacker, defender)
			if !alive {
				return false
			}
			if !sleepAlive(rm, o.t.Poll, o.t.DuelPause) {
				return false
			}
			if duelWinner == attacker {
				done, alive := o.attackerHit(rm, attacker, defender)
				if !alive {
					return false
				}
				captured = done
			} else {
				rm.Broadcast(protocol.Event{Type: protocol.EvtBattleDefended})
				rm.WithState(func(s *engine.State) { s.AwardDefense(defender) })
				captured = true
			}

		default:
			// Nobody correct: the siege ends with a defend broadcast but,
			// unlike a won defense, no bonus.
			if !sleepAlive(rm, o.t.Poll, o.t.DuelPause) {
				return false
			}
			rm.Broadcast(protocol.Event{Type: protocol.EvtBattleDefended})
			captured = true
		}
	}

	if !sleepAlive(rm, o.t.Poll, o.t.BaseMini) {
		return false
	}
	rm.Broadcast(protocol.Event{Type: protocol.EvtHideBaseMini})

	snap := rm.RegionsSnapshot()
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateRegions, Payload: snap})
	rm.Broadcast(protocol.Event{Type: protocol.EvtUpdateScores, Payload: protocol.ScoresPayload{Scores: snap.Scores}})
	return true
}

// attackerHit applies one successful attack on a base: a life comes off,
// and at zero the defender's entire holding transfers. The first return is
// true when the siege is over (base captured).
func (o *Orchestrator) attackerHit(rm *room.Room, attacker, defender int) (bool, bool) {
	remaining := 0
	rm.WithState(func(s *engine.State) { remaining = s.DropLife(defender) })
	rm.Broadcast(protocol.Event{Type: protocol.EvtDestroyTower, Payload: protocol.TowerPayload{
		Defender:       defender,
		RemainingLives: remaining,
	}})
	if !sleepAlive(rm, o.t.Poll, o.t.TowerFall) {
		return false, false
	}

	if remaining > 0 {
		return false, true
	}

	var eliminated []int
	rm.WithState(func(s *engine.State) { eliminated = s.TransferBase(attacker, defender) })
	for _, p := range eliminated {
		rm.Broadcast(protocol.Event{Type: protocol.EvtPlayerLoses, Payload: protocol.PlayerLosesPayload{Defender: p}})
	}
	return true, true
}

// gameOver broadcasts the ranked final score report.
func (o *Orchestrator) gameOver(rm *room.Room) {
	if rm.Closed() {
		return
	}
	scores := rm.RecomputeScores()

	ranked := make([]protocol.RankedScore, 0, len(scores))
	for p, s := range scores {
		ranked = append(ranked, protocol.RankedScore{Player: p, Score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Player < ranked[j].Player
	})

	o.log.Info("game over", zap.String("room", rm.ID), zap.Any("scores", scores))
	rm.Broadcast(protocol.Event{Type: protocol.EvtGameOver, Payload: protocol.GameOverPayload{
		Message:     "Game over!",
		FinalScores: ranked,
	}})
}

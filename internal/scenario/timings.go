package scenario

import "time"

// Timings collects every pacing delay and prompt window in one place so
// tests can shrink them to milliseconds. Defaults mirror the client
// animation lengths.
type Timings struct {
	Poll time.Duration // collector poll interval, coarser than any timeout

	TurnTimeout   time.Duration // region pick window
	QuizWindow    time.Duration // multiple-choice collection window
	NumericWindow time.Duration // numeric collection window

	GameIntro  time.Duration // pause after the start-game broadcast
	Settle     time.Duration // base settle animation
	PlanIntro  time.Duration // expansion plan preview
	RoundIntro time.Duration // conquest round intro
	Reveal     time.Duration // quiz result reveal
	TurnGap    time.Duration // pin pause between expansion turns
	Pin        time.Duration // pin pause after a contested selection
	DuelLeadIn time.Duration // gap between tied quiz and the duel
	DuelPause  time.Duration // gap after duel results
	TowerFall  time.Duration // tower destruction animation
	BaseMini   time.Duration // base-contest overlay show/hide
}

func DefaultTimings() Timings {
	return Timings{
		Poll:          100 * time.Millisecond,
		TurnTimeout:   10 * time.Second,
		QuizWindow:    10 * time.Second,
		NumericWindow: 15 * time.Second,
		GameIntro:     7 * time.Second,
		Settle:        8 * time.Second,
		PlanIntro:     2 * time.Second,
		RoundIntro:    4 * time.Second,
		Reveal:        6 * time.Second,
		TurnGap:       time.Second,
		Pin:           2 * time.Second,
		DuelLeadIn:    2 * time.Second,
		DuelPause:     3 * time.Second,
		TowerFall:     6 * time.Second,
		BaseMini:      time.Second,
	}
}

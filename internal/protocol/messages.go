// Package protocol defines the websocket wire format. One flat client
// message covers every inbound event; server events carry a type tag plus a
// typed payload.
package protocol

import "github.com/jhavelka/conquest-backend/internal/region"

// Client -> server message types.
const (
	MsgCreateRoom    = "createRoom"
	MsgJoinRoom      = "joinRoom"
	MsgJoinRandom    = "joinRandom"
	MsgClaimRegion   = "claimRegion"
	MsgAnswer        = "answer"
	MsgNumericAnswer = "numericAnswer"
	MsgBaseSettled   = "baseSettled"
	MsgChat          = "chat"
)

type ClientMessage struct {
	Type         string `json:"type"`
	Name         string `json:"name,omitempty"`
	RoomID       string `json:"room_id,omitempty"`
	Region       string `json:"region,omitempty"`
	AnswerIndex  *int   `json:"answer_index,omitempty"`
	Value        *int   `json:"value,omitempty"`
	PlayerNumber int    `json:"player_number,omitempty"`
	Text         string `json:"text,omitempty"`
}

// Server -> client event types.
const (
	EvtPlayerAssigned        = "playerAssigned"
	EvtUpdatePlayers         = "updatePlayers"
	EvtUpdateScores          = "updateScores"
	EvtChatHistory           = "chatHistory"
	EvtChatNew               = "chatNew"
	EvtStartGame             = "startGame"
	EvtBasesSettle           = "basesSettle"
	EvtExpansionIntro        = "expansionIntro"
	EvtStartExpansionRound   = "startExpansionRound"
	EvtPlayerTurn            = "playerTurn"
	EvtAvailableRegions      = "availableRegions"
	EvtPlayerSelectedRegion  = "playerSelectedRegion"
	EvtMultipleChoice        = "multipleChoiceQuestion"
	EvtMultipleChoiceResults = "multipleChoiceResults"
	EvtNumericQuestion       = "numericQuestion"
	EvtNumericDuel           = "numericQuestionForTwo"
	EvtNumericResults        = "numericQuestionResults"
	EvtNumericDuelResults    = "numericQuestionResultsForTwo"
	EvtPhaseChange           = "phaseChange"
	EvtConquestIntro         = "conquestIntro"
	EvtBattleIntro           = "battleIntro"
	EvtStartBattleRound      = "startBattleRound"
	EvtUpdateBattleStick     = "updateBattleStick"
	EvtShowBaseMini          = "showBaseMini"
	EvtHideBaseMini          = "hideBaseMini"
	EvtDestroyTower          = "destroyTower"
	EvtBattleDefended        = "battleDefended"
	EvtPlayerLoses           = "playerLoses"
	EvtUpdateRegions         = "updateRegions"
	EvtRoomReady             = "roomReady"
	EvtRoomError             = "roomError"
	EvtRoomClosed            = "roomClosed"
	EvtGameOver              = "gameOver"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type PlayerAssignedPayload struct {
	Number   int            `json:"number"`
	AllNames map[int]string `json:"all_names"`
	Scores   map[int]int    `json:"scores"`
	RoomID   string         `json:"room_id"`
}

type RosterPayload struct {
	AllNames map[int]string `json:"all_names"`
}

type ScoresPayload struct {
	Scores map[int]int `json:"scores"`
}

type ChatMessage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	SentAt int64  `json:"ts"`
}

type ChatHistoryPayload struct {
	Messages []ChatMessage `json:"messages"`
}

type StartGamePayload struct {
	Bases   map[int]region.Name   `json:"bases"`
	Regions map[int][]region.Name `json:"regions"`
	Values  map[region.Name]int   `json:"region_values"`
}

type RegionsPayload struct {
	Regions map[int][]region.Name `json:"regions"`
	Values  map[region.Name]int   `json:"region_values"`
	Scores  map[int]int           `json:"scores"`
}

type PhasePayload struct {
	Phase string `json:"phase"`
}

type PlanPayload struct {
	Plan  [][]int `json:"plan"`
	Title string  `json:"title,omitempty"`
}

type RoundPayload struct {
	Round int   `json:"round"`
	Order []int `json:"order"`
}

type PlayerTurnPayload struct {
	Player   int `json:"player"`
	Round    int `json:"round"`
	TimeLeft int `json:"time_left"`
}

type AvailableRegionsPayload struct {
	Regions []region.Name `json:"regions"`
}

type SelectionPayload struct {
	Player int         `json:"player"`
	Region region.Name `json:"region"`
}

type MultipleChoicePayload struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	TimeLimit    int      `json:"time"`
	Attacker     int      `json:"attacker,omitempty"`
	Defender     int      `json:"defender,omitempty"`
	AttackerName string   `json:"attacker_name,omitempty"`
	DefenderName string   `json:"defender_name,omitempty"`
	CanAnswer    bool     `json:"can_answer"`
}

type MultipleChoiceResultsPayload struct {
	CorrectAnswer int         `json:"correct_answer"`
	Answers       map[int]int `json:"answers_by_player"`
}

type NumericQuestionPayload struct {
	Question     string `json:"question"`
	TimeLimit    int    `json:"time"`
	Attacker     int    `json:"attacker,omitempty"`
	Defender     int    `json:"defender,omitempty"`
	AttackerName string `json:"attacker_name,omitempty"`
	DefenderName string `json:"defender_name,omitempty"`
}

type NumericAnswerEntry struct {
	Player int    `json:"player"`
	Value  int    `json:"num"`
	TimeMs int64  `json:"time"`
	Name   string `json:"name,omitempty"`
}

type NumericResultsPayload struct {
	CorrectAnswer int                  `json:"correct_answer"`
	Attacker      int                  `json:"attacker,omitempty"`
	Defender      int                  `json:"defender,omitempty"`
	Answers       []NumericAnswerEntry `json:"answers"`
}

type ConquestIntroPayload struct {
	Round int    `json:"round"`
	Title string `json:"title"`
}

type BattleStickPayload struct {
	Round  int `json:"round"`
	Stick  int `json:"battlestick"`
	Player int `json:"player"`
}

type BaseMiniPayload struct {
	Attacker int `json:"attacker"`
	Defender int `json:"defender"`
	Lives    int `json:"lives"`
}

type TowerPayload struct {
	Defender       int `json:"defender"`
	RemainingLives int `json:"remaining_lives"`
}

type PlayerLosesPayload struct {
	Defender int `json:"defender"`
}

type RankedScore struct {
	Player int `json:"player"`
	Score  int `json:"score"`
}

type GameOverPayload struct {
	Message     string        `json:"message"`
	FinalScores []RankedScore `json:"final_scores"`
}

type RoomReadyPayload struct {
	RoomID string `json:"room_id"`
}

type RoomErrorPayload struct {
	Message string `json:"message"`
}

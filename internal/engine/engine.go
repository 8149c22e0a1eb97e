package engine

import (
	"errors"
	"time"
)

var ErrGameOver = errors.New("game already over")
var ErrReportLocked = errors.New("report in progress")
var ErrWrongTurn = errors.New("invalid turn")
var ErrWrongPhase = errors.New("not allowed in this phase")
var ErrUnknownCategory = errors.New("unknown category")
var ErrAlreadyScored = errors.New("category already scored")
var ErrNotScored = errors.New("category not scored")
var ErrBadIndex = errors.New("die index out of range")
var ErrBadValue = errors.New("invalid value")
var ErrNotReporter = errors.New("not the reporter")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrOverlayBusy = errors.New("overlay in progress")
var ErrMatchFull = errors.New("match is full")
var ErrStaleTicket = errors.New("stale double-or-zero ticket")
var ErrUnsupportedCommand = errors.New("unsupported command")

const NumDice = 5

type State struct {
	Players    []*Player     `json:"players"`
	Turn       int           `json:"turn"`
	Dice       [NumDice]int  `json:"dice"`
	Held       [NumDice]bool `json:"held"`
	RollCount  int           `json:"rollCount"`
	TurnFlags  TurnFlags     `json:"turnFlags"`
	Report     ReportSession `json:"report"`
	GameOver   bool          `json:"gameOver"`
	WinnerID   string        `json:"winnerId,omitempty"`
	WinnerName string        `json:"winnerName"`
	EndedBy    EndReason     `json:"endedBy,omitempty"`

	// TurnSeq increases on every turn transition and match reset; DozSeq on
	// every double-or-zero activation or cancellation. Neither is ever reset.
	TurnSeq uint64 `json:"turnSeq"`
	DozSeq  uint64 `json:"-"`

	Rules Rules `json:"-"`
}

type Player struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Scores         map[Category]int  `json:"scores"`
	OriginalScores map[Category]int  `json:"originalScores"`
	Cheated        map[Category]bool `json:"cheated"`
	Penalty        int               `json:"penalty"`
	UpperSubtotal  int               `json:"upperSubtotal"`
	Bonus          int               `json:"bonus"`
	Total          int               `json:"total"`
}

// TurnFlags is zeroed on every turn transition.
type TurnFlags struct {
	NoKeepBeforeRoll2  bool `json:"noKeepBeforeRoll2"`
	NoKeepBeforeRoll3  bool `json:"noKeepBeforeRoll3"`
	HanModeArmed       bool `json:"hanModeArmed"`
	HanModeTurn        bool `json:"hanModeTurn"`
	DoubleOrZeroUsed   bool `json:"doubleOrZeroUsed"`
	YahtzeeFanfareUsed bool `json:"yahtzeeFanfareUsed"`

	RollOverlayOpen bool   `json:"rollOverlayOpen"`
	RollOverlayBy   string `json:"rollOverlayBy,omitempty"`
	DozInProgress   bool   `json:"dozInProgress"`
	DozBy           string `json:"dozBy,omitempty"`
}

type Rules struct {
	MaxPlayers     int
	DozOverlay     time.Duration
	HeartbeatDelay time.Duration
	CheatMax       int
	ReportReward   int
}

func DefaultRules() Rules {
	return Rules{
		MaxPlayers:     4,
		DozOverlay:     2500 * time.Millisecond,
		HeartbeatDelay: 350 * time.Millisecond,
		CheatMax:       999,
		ReportReward:   5,
	}
}

type EndReason string

const (
	EndByScores       EndReason = "scores"
	EndByGodReYahtzee EndReason = "godReYahtzee"
)

type CommandType string

const (
	CmdJoin             CommandType = "Join"
	CmdLeave            CommandType = "Leave"
	CmdRoll             CommandType = "Roll"
	CmdToggleHold       CommandType = "ToggleHold"
	CmdDoubleOrZero     CommandType = "DoubleOrZero"
	CmdGodReYahtzee     CommandType = "GodReYahtzee"
	CmdScore            CommandType = "Score"
	CmdCheatSet         CommandType = "CheatSet"
	CmdReportStart      CommandType = "ReportStart"
	CmdReportSelect     CommandType = "ReportSelect"
	CmdRollOverlayOpen  CommandType = "RollOverlayOpen"
	CmdRollOverlayClose CommandType = "RollOverlayClose"
	CmdDozOverlayStart  CommandType = "DozOverlayStart"

	// Issued by the match scheduler, never by clients.
	CmdDozHeartbeat CommandType = "DozHeartbeat"
	CmdDozResolve   CommandType = "DozResolve"
)

// Mutates reports whether a successful command changes the state snapshot
// that clients see.
func (c CommandType) Mutates() bool {
	return c != CmdDozHeartbeat
}

/*
	CmdRoll            -> [RollOverlay hide] -> Sfx(fanfare|roll)
	CmdScore           -> [RollOverlay hide] -> TurnAdvanced | GameCompleted
	CmdDozOverlayStart -> DozOverlay show -> Sfx(doz) -> TimerScheduled(heartbeat) -> TimerScheduled(resolve)
	CmdDozHeartbeat    -> Sfx(heartStart)
	CmdDozResolve      -> Sfx(heartStop) -> [Sfx(roll)] -> DozOverlay hide
	CmdReportStart     -> Sfx(siren)
	CmdReportSelect    -> Sfx(correct|wrong)
	CmdLeave           -> [RollOverlay hide] [Sfx(heartStop) DozOverlay hide] -> PlayerLeft -> [MatchReset|GameCompleted]
*/

type Command struct {
	Type     CommandType
	PlayerID string
	Index    int
	Category Category
	Value    float64
	TargetID string
	Ticket   DozTicket
	At       time.Time
}

type EventType string

const (
	EvtSfx            EventType = "Sfx"
	EvtRollOverlay    EventType = "RollOverlay"
	EvtDozOverlay     EventType = "DozOverlay"
	EvtTimerScheduled EventType = "TimerScheduled"
	EvtPlayerJoined   EventType = "PlayerJoined"
	EvtPlayerLeft     EventType = "PlayerLeft"
	EvtTurnAdvanced   EventType = "TurnAdvanced"
	EvtGameCompleted  EventType = "GameCompleted"
	EvtMatchReset     EventType = "MatchReset"
)

type SfxName string

const (
	SfxRoll       SfxName = "roll"
	SfxFanfare    SfxName = "fanfare"
	SfxDoz        SfxName = "doz"
	SfxHeartStart SfxName = "heartStart"
	SfxHeartStop  SfxName = "heartStop"
	SfxSiren      SfxName = "siren"
	SfxCorrect    SfxName = "correct"
	SfxWrong      SfxName = "wrong"
)

type Event struct {
	Type       EventType
	Sfx        SfxName
	Show       bool
	PlayerID   string
	PlayerName string
	// Duration is the overlay length for DozOverlay and the delay for
	// TimerScheduled.
	Duration time.Duration
	Timer    CommandType
	Ticket   DozTicket
}

// Apply validates cmd against s and returns the resulting events and state.
// On error the returned state is s, untouched; callers treat errors as
// dropped commands.
func Apply(s State, cmd Command, r Roller) ([]Event, State, error) {
	next := s.Clone()

	var events []Event
	var err error

	switch cmd.Type {
	case CmdJoin:
		events, err = join(&next, cmd)
	case CmdLeave:
		events, err = leave(&next, cmd)
	case CmdRoll:
		events, err = roll(&next, cmd, r)
	case CmdToggleHold:
		events, err = toggleHold(&next, cmd)
	case CmdDoubleOrZero:
		events, err = doubleOrZero(&next, cmd, r)
	case CmdGodReYahtzee:
		events, err = godReYahtzee(&next, cmd, r)
	case CmdScore:
		events, err = score(&next, cmd)
	case CmdCheatSet:
		events, err = cheatSet(&next, cmd)
	case CmdReportStart:
		events, err = reportStart(&next, cmd)
	case CmdReportSelect:
		events, err = reportSelect(&next, cmd)
	case CmdRollOverlayOpen:
		events, err = rollOverlayOpen(&next, cmd)
	case CmdRollOverlayClose:
		events, err = rollOverlayClose(&next, cmd)
	case CmdDozOverlayStart:
		events, err = dozOverlayStart(&next, cmd)
	case CmdDozHeartbeat:
		events, err = dozHeartbeat(&next, cmd)
	case CmdDozResolve:
		events, err = dozResolve(&next, cmd, r)
	default:
		return nil, s, ErrUnsupportedCommand
	}

	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

// guardPlay is the first check of every client handler.
func guardPlay(s *State) error {
	if s.GameOver {
		return ErrGameOver
	}
	if s.Report.Locked() {
		return ErrReportLocked
	}
	return nil
}

func currentPlayer(s *State) *Player {
	if s.Turn < 0 || s.Turn >= len(s.Players) {
		return nil
	}
	return s.Players[s.Turn]
}

func requireCurrent(s *State, playerID string) (*Player, error) {
	cur := currentPlayer(s)
	if cur == nil || cur.ID != playerID {
		return nil, ErrWrongTurn
	}
	return cur, nil
}

func findPlayer(s *State, playerID string) (int, *Player) {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i, p
		}
	}
	return -1, nil
}

func sfx(name SfxName) Event {
	return Event{Type: EvtSfx, Sfx: name}
}

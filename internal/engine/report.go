package engine

import (
	"encoding/json"
	"math"
	"time"
)

type ReportPhase string

const (
	ReportIdle   ReportPhase = "idle"
	ReportLocked ReportPhase = "locked"
)

// ReportSession is the match-wide accusation lock: idle, or locked by one
// reporter until their single accusation resolves or they leave.
type ReportSession struct {
	Phase      ReportPhase
	ReporterID string
	StartedAt  time.Time
}

func idleReport() ReportSession {
	return ReportSession{Phase: ReportIdle}
}

func lockedBy(reporterID string, at time.Time) ReportSession {
	return ReportSession{Phase: ReportLocked, ReporterID: reporterID, StartedAt: at}
}

func (r ReportSession) Locked() bool {
	return r.Phase == ReportLocked
}

func (r ReportSession) MarshalJSON() ([]byte, error) {
	out := struct {
		Active     bool        `json:"active"`
		Phase      ReportPhase `json:"phase"`
		ReporterID string      `json:"reporterId,omitempty"`
		StartedAt  *time.Time  `json:"startedAt,omitempty"`
	}{
		Active:     r.Locked(),
		Phase:      r.Phase,
		ReporterID: r.ReporterID,
	}
	if out.Phase == "" {
		out.Phase = ReportIdle
	}
	if r.Locked() && !r.StartedAt.IsZero() {
		out.StartedAt = &r.StartedAt
	}
	return json.Marshal(out)
}

// cheatSet overwrites one of the actor's own recorded scores. The first
// cheat on a category captures the pre-cheat value as the original.
func cheatSet(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	_, me := findPlayer(s, cmd.PlayerID)
	if me == nil {
		return nil, ErrUnknownPlayer
	}
	if !cmd.Category.Valid() {
		return nil, ErrUnknownCategory
	}
	if math.IsNaN(cmd.Value) || math.IsInf(cmd.Value, 0) {
		return nil, ErrBadValue
	}
	current, ok := me.Scores[cmd.Category]
	if !ok {
		return nil, ErrNotScored
	}

	value := int(min(max(math.Trunc(cmd.Value), 0), float64(s.Rules.CheatMax)))

	if _, captured := me.OriginalScores[cmd.Category]; !captured {
		me.OriginalScores[cmd.Category] = current
	}
	me.Scores[cmd.Category] = value
	me.Cheated[cmd.Category] = value != me.OriginalScores[cmd.Category]

	RecomputeTotals(me)
	return nil, nil
}

func reportStart(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	if _, p := findPlayer(s, cmd.PlayerID); p == nil {
		return nil, ErrUnknownPlayer
	}
	if s.TurnFlags.RollOverlayOpen || s.TurnFlags.DozInProgress {
		return nil, ErrOverlayBusy
	}

	s.Report = lockedBy(cmd.PlayerID, cmd.At)
	return []Event{{Type: EvtSfx, Sfx: SfxSiren, PlayerID: cmd.PlayerID}}, nil
}

// reportSelect resolves the single accusation of the active report. A correct
// accusation restores the target's original score and rewards the reporter;
// a wrong one costs the reporter. The lock is released either way.
func reportSelect(s *State, cmd Command) ([]Event, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	if !s.Report.Locked() {
		return nil, ErrWrongPhase
	}
	if cmd.PlayerID != s.Report.ReporterID {
		return nil, ErrNotReporter
	}
	if !cmd.Category.Valid() {
		return nil, ErrUnknownCategory
	}
	_, reporter := findPlayer(s, cmd.PlayerID)
	_, target := findPlayer(s, cmd.TargetID)
	if reporter == nil || target == nil {
		return nil, ErrUnknownPlayer
	}
	recorded, ok := target.Scores[cmd.Category]
	if !ok {
		return nil, ErrNotScored
	}

	ev := Event{Type: EvtSfx, PlayerID: reporter.ID}
	if target.Cheated[cmd.Category] {
		reporter.Penalty += s.Rules.ReportReward

		orig, captured := target.OriginalScores[cmd.Category]
		if !captured {
			orig = recorded
		}
		target.Scores[cmd.Category] = orig
		target.Cheated[cmd.Category] = false
		RecomputeTotals(target)
		ev.Sfx = SfxCorrect
	} else {
		reporter.Penalty -= s.Rules.ReportReward
		ev.Sfx = SfxWrong
	}
	RecomputeTotals(reporter)

	s.Report = idleReport()
	return []Event{ev}, nil
}

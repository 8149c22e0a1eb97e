package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoredState has player a holding chance=20 and player b to move.
func scoredState(t *testing.T) State {
	t.Helper()
	s := newTwoPlayerState(t)
	_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, rolls(4))
	_, s = mustApply(t, s, Command{Type: CmdScore, PlayerID: "a", Category: CatChance}, nil)
	return s
}

func TestCheatSet(t *testing.T) {
	cases := []struct {
		name        string
		value       float64
		wantScore   int
		wantCheated bool
	}{
		{name: "raise", value: 30, wantScore: 30, wantCheated: true},
		{name: "truncates", value: 25.9, wantScore: 25, wantCheated: true},
		{name: "clamps high", value: 5000, wantScore: 999, wantCheated: true},
		{name: "clamps negative", value: -12, wantScore: 0, wantCheated: true},
		{name: "same as original", value: 20, wantScore: 20, wantCheated: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := scoredState(t)
			_, s = mustApply(t, s, Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: tc.value}, nil)

			a := s.Player("a")
			assert.Equal(t, tc.wantScore, a.Scores[CatChance])
			assert.Equal(t, 20, a.OriginalScores[CatChance])
			assert.Equal(t, tc.wantCheated, a.Cheated[CatChance])
			assert.Equal(t, tc.wantScore, a.Total)
		})
	}
}

func TestCheatSet_OriginalNeverChanges(t *testing.T) {
	s := scoredState(t)
	for _, v := range []float64{50, 0, 20, 77} {
		_, s = mustApply(t, s, Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: v}, nil)
		assert.Equal(t, 20, s.Player("a").OriginalScores[CatChance])
	}
	assert.Equal(t, 77, s.Player("a").Scores[CatChance])
	assert.True(t, s.Player("a").Cheated[CatChance])
}

func TestCheatSet_Guards(t *testing.T) {
	s := scoredState(t)

	cases := []struct {
		name string
		cmd  Command
		want error
	}{
		{name: "unscored category", cmd: Command{Type: CmdCheatSet, PlayerID: "a", Category: CatYahtzee, Value: 50}, want: ErrNotScored},
		{name: "someone else's score", cmd: Command{Type: CmdCheatSet, PlayerID: "b", Category: CatChance, Value: 50}, want: ErrNotScored},
		{name: "unknown category", cmd: Command{Type: CmdCheatSet, PlayerID: "a", Category: "luck", Value: 50}, want: ErrUnknownCategory},
		{name: "NaN", cmd: Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: math.NaN()}, want: ErrBadValue},
		{name: "infinite", cmd: Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: math.Inf(1)}, want: ErrBadValue},
		{name: "not seated", cmd: Command{Type: CmdCheatSet, PlayerID: "z", Category: CatChance, Value: 50}, want: ErrUnknownPlayer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := Apply(s, tc.cmd, nil)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, s, next)
		})
	}
}

func TestReport_CorrectAccusationRestores(t *testing.T) {
	s := scoredState(t)
	_, s = mustApply(t, s, Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: 300}, nil)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events, s := mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "b", At: at}, nil)
	assert.Equal(t, []Event{{Type: EvtSfx, Sfx: SfxSiren, PlayerID: "b"}}, events)
	require.True(t, s.Report.Locked())
	assert.Equal(t, "b", s.Report.ReporterID)
	assert.Equal(t, at, s.Report.StartedAt)

	events, s = mustApply(t, s, Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "a", Category: CatChance}, nil)
	assert.True(t, ContainsSfx(events, SfxCorrect))

	a, b := s.Player("a"), s.Player("b")
	assert.Equal(t, 20, a.Scores[CatChance])
	assert.False(t, a.Cheated[CatChance])
	assert.Equal(t, 20, a.Total)
	assert.Equal(t, 5, b.Penalty)
	assert.Equal(t, 5, b.Total)
	assert.False(t, s.Report.Locked())
}

func TestReport_FalseAccusationCostsReporter(t *testing.T) {
	s := scoredState(t)
	_, s = mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "b"}, nil)

	events, s := mustApply(t, s, Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "a", Category: CatChance}, nil)
	assert.True(t, ContainsSfx(events, SfxWrong))
	assert.Equal(t, 20, s.Player("a").Scores[CatChance])
	assert.Equal(t, -5, s.Player("b").Penalty)
	assert.Equal(t, -5, s.Player("b").Total)
	assert.False(t, s.Report.Locked())
}

func TestReport_FalseAccusationLeavesCheatUntouched(t *testing.T) {
	s := scoredState(t)
	_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "b"}, rolls(2))
	_, s = mustApply(t, s, Command{Type: CmdScore, PlayerID: "b", Category: CatTwos}, nil)
	_, s = mustApply(t, s, Command{Type: CmdCheatSet, PlayerID: "a", Category: CatChance, Value: 99}, nil)

	_, s = mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "a"}, nil)
	_, s = mustApply(t, s, Command{Type: CmdReportSelect, PlayerID: "a", TargetID: "b", Category: CatTwos}, nil)

	a := s.Player("a")
	assert.Equal(t, 99, a.Scores[CatChance])
	assert.True(t, a.Cheated[CatChance])
	assert.Equal(t, -5, a.Penalty)
	assert.Equal(t, 94, a.Total)
}

func TestReportSelect_Guards(t *testing.T) {
	s := scoredState(t)

	_, _, err := Apply(s, Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "a", Category: CatChance}, nil)
	require.ErrorIs(t, err, ErrWrongPhase, "no active report")

	_, s = mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "b"}, nil)

	cases := []struct {
		name string
		cmd  Command
		want error
	}{
		{name: "not the reporter", cmd: Command{Type: CmdReportSelect, PlayerID: "a", TargetID: "a", Category: CatChance}, want: ErrNotReporter},
		{name: "unknown target", cmd: Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "z", Category: CatChance}, want: ErrUnknownPlayer},
		{name: "unscored category", cmd: Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "a", Category: CatOnes}, want: ErrNotScored},
		{name: "unknown category", cmd: Command{Type: CmdReportSelect, PlayerID: "b", TargetID: "a", Category: "x"}, want: ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := Apply(s, tc.cmd, nil)
			require.ErrorIs(t, err, tc.want)
			assert.True(t, next.Report.Locked(), "a rejected selection keeps the lock")
		})
	}
}

func TestReportStart_AnyPlayerButNotDuringOverlay(t *testing.T) {
	s := newTwoPlayerState(t)
	_, s = mustApply(t, s, Command{Type: CmdRollOverlayOpen, PlayerID: "a"}, nil)

	_, _, err := Apply(s, Command{Type: CmdReportStart, PlayerID: "b"}, nil)
	require.ErrorIs(t, err, ErrOverlayBusy)

	_, s = mustApply(t, s, Command{Type: CmdRollOverlayClose, PlayerID: "a"}, nil)
	_, s = mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "b"}, nil)
	assert.True(t, s.Report.Locked())

	_, _, err = Apply(s, Command{Type: CmdReportStart, PlayerID: "z"}, nil)
	require.ErrorIs(t, err, ErrReportLocked)
}

func TestReportSession_JSON(t *testing.T) {
	b, err := json.Marshal(idleReport())
	require.NoError(t, err)
	assert.JSONEq(t, `{"active":false,"phase":"idle"}`, string(b))

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	b, err = json.Marshal(lockedBy("p1", at))
	require.NoError(t, err)
	assert.JSONEq(t, `{"active":true,"phase":"locked","reporterId":"p1","startedAt":"2026-05-01T12:00:00Z"}`, string(b))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atRollThree leaves player a on their third roll with double-or-zero
// available.
func atRollThree(t *testing.T) State {
	t.Helper()
	s := newTwoPlayerState(t)
	r := rolls(1, 2, 3, 4, 6)
	_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, r)
	_, s = mustApply(t, s, Command{Type: CmdToggleHold, PlayerID: "a", Index: 0}, nil)
	_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, r)
	_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, r)
	require.True(t, canDoubleOrZero(&s))
	return s
}

func startDoz(t *testing.T, s State) (State, DozTicket) {
	t.Helper()
	events, s := mustApply(t, s, Command{Type: CmdDozOverlayStart, PlayerID: "a"}, nil)
	for _, e := range events {
		if e.Type == EvtTimerScheduled {
			return s, e.Ticket
		}
	}
	t.Fatal("no timer scheduled")
	return s, DozTicket{}
}

func TestDozOverlayStart_SchedulesHeartbeatAndResolve(t *testing.T) {
	s := atRollThree(t)
	turnSeq := s.TurnSeq

	events, s := mustApply(t, s, Command{Type: CmdDozOverlayStart, PlayerID: "a"}, nil)
	require.Len(t, events, 4)

	rules := DefaultRules()
	ticket := DozTicket{Seq: s.DozSeq, PlayerID: "a", TurnSeq: turnSeq}
	assert.Equal(t, Event{Type: EvtDozOverlay, Show: true, PlayerID: "a", PlayerName: "Player1", Duration: rules.DozOverlay}, events[0])
	assert.Equal(t, sfx(SfxDoz), events[1])
	assert.Equal(t, Event{Type: EvtTimerScheduled, Timer: CmdDozHeartbeat, Duration: rules.HeartbeatDelay, Ticket: ticket}, events[2])
	assert.Equal(t, Event{Type: EvtTimerScheduled, Timer: CmdDozResolve, Duration: rules.DozOverlay, Ticket: ticket}, events[3])

	assert.True(t, s.TurnFlags.DozInProgress)
	assert.Equal(t, "a", s.TurnFlags.DozBy)
	assert.False(t, s.TurnFlags.DoubleOrZeroUsed, "dice change only on resolve")
}

func TestDozOverlayStart_Guards(t *testing.T) {
	s := atRollThree(t)

	_, _, err := Apply(s, Command{Type: CmdDozOverlayStart, PlayerID: "b"}, nil)
	require.ErrorIs(t, err, ErrWrongTurn)

	s, _ = startDoz(t, s)
	_, _, err = Apply(s, Command{Type: CmdDozOverlayStart, PlayerID: "a"}, nil)
	require.ErrorIs(t, err, ErrOverlayBusy)

	_, _, err = Apply(s, Command{Type: CmdReportStart, PlayerID: "b"}, nil)
	require.ErrorIs(t, err, ErrOverlayBusy)

	fresh := newTwoPlayerState(t)
	_, _, err = Apply(fresh, Command{Type: CmdDozOverlayStart, PlayerID: "a"}, nil)
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestDozResolve_RerollsWhenTurnStillLive(t *testing.T) {
	s, ticket := startDoz(t, atRollThree(t))

	events, s := mustApply(t, s, Command{Type: CmdDozHeartbeat, Ticket: ticket}, nil)
	assert.Equal(t, []Event{sfx(SfxHeartStart)}, events)

	events, s = mustApply(t, s, Command{Type: CmdDozResolve, Ticket: ticket}, rolls(2))
	assert.Equal(t, []Event{sfx(SfxHeartStop), sfx(SfxRoll), {Type: EvtDozOverlay, Show: false}}, events)
	assert.Equal(t, [NumDice]int{2, 2, 2, 2, 2}, s.Dice)
	assert.Equal(t, [NumDice]bool{}, s.Held)
	assert.True(t, s.TurnFlags.DoubleOrZeroUsed)
	assert.False(t, s.TurnFlags.DozInProgress)
	assert.Empty(t, s.TurnFlags.DozBy)

	_, _, err := Apply(s, Command{Type: CmdDozResolve, Ticket: ticket}, rolls(3))
	require.ErrorIs(t, err, ErrStaleTicket, "a ticket resolves once")
}

func TestDozResolve_AfterTurnAdvancedOnlyClosesOverlay(t *testing.T) {
	s, ticket := startDoz(t, atRollThree(t))

	_, s = mustApply(t, s, Command{Type: CmdScore, PlayerID: "a", Category: CatChance}, nil)
	require.Equal(t, "b", s.Current().ID)

	_, _, err := Apply(s, Command{Type: CmdDozHeartbeat, Ticket: ticket}, nil)
	require.ErrorIs(t, err, ErrStaleTicket)

	dice := s.Dice
	events, s := mustApply(t, s, Command{Type: CmdDozResolve, Ticket: ticket}, rolls(6))
	assert.Equal(t, []Event{sfx(SfxHeartStop), {Type: EvtDozOverlay, Show: false}}, events)
	assert.Equal(t, dice, s.Dice)
	assert.Equal(t, 0, s.RollCount)
	assert.False(t, s.TurnFlags.DoubleOrZeroUsed)
}

func TestDozResolve_ManualDoubleOrZeroFirst(t *testing.T) {
	s, ticket := startDoz(t, atRollThree(t))

	_, s = mustApply(t, s, Command{Type: CmdDoubleOrZero, PlayerID: "a"}, rolls(4))
	require.True(t, s.TurnFlags.DoubleOrZeroUsed)

	events, s := mustApply(t, s, Command{Type: CmdDozResolve, Ticket: ticket}, rolls(1))
	assert.False(t, ContainsSfx(events, SfxRoll))
	assert.Equal(t, [NumDice]int{4, 4, 4, 4, 4}, s.Dice)
	assert.True(t, ContainsEvent(events, EvtDozOverlay))
}

func TestLeave_DozOwnerCancelsPendingTimers(t *testing.T) {
	s, ticket := startDoz(t, atRollThree(t))

	events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "a"}, nil)
	assert.True(t, ContainsSfx(events, SfxHeartStop))
	assert.Contains(t, events, Event{Type: EvtDozOverlay, Show: false})
	assert.False(t, s.TurnFlags.DozInProgress)

	_, _, err := Apply(s, Command{Type: CmdDozHeartbeat, Ticket: ticket}, nil)
	require.ErrorIs(t, err, ErrStaleTicket)
	_, _, err = Apply(s, Command{Type: CmdDozResolve, Ticket: ticket}, rolls(1))
	require.ErrorIs(t, err, ErrStaleTicket)
}

func TestRollOverlay(t *testing.T) {
	s := newTwoPlayerState(t)

	_, _, err := Apply(s, Command{Type: CmdRollOverlayOpen, PlayerID: "b"}, nil)
	require.ErrorIs(t, err, ErrWrongTurn)
	_, _, err = Apply(s, Command{Type: CmdRollOverlayClose, PlayerID: "a"}, nil)
	require.ErrorIs(t, err, ErrWrongPhase, "nothing open")

	events, s := mustApply(t, s, Command{Type: CmdRollOverlayOpen, PlayerID: "a"}, nil)
	assert.Equal(t, []Event{{Type: EvtRollOverlay, Show: true, PlayerID: "a", PlayerName: "Player1"}}, events)
	assert.True(t, s.TurnFlags.RollOverlayOpen)
	assert.Equal(t, "a", s.TurnFlags.RollOverlayBy)

	_, _, err = Apply(s, Command{Type: CmdRollOverlayClose, PlayerID: "b"}, nil)
	require.ErrorIs(t, err, ErrWrongTurn)

	events, s = mustApply(t, s, Command{Type: CmdRollOverlayClose, PlayerID: "a"}, nil)
	assert.Equal(t, []Event{{Type: EvtRollOverlay, Show: false}}, events)
	assert.False(t, s.TurnFlags.RollOverlayOpen)
}

func TestRollOverlay_NotAfterThirdRoll(t *testing.T) {
	s := atRollThree(t)
	_, _, err := Apply(s, Command{Type: CmdRollOverlayOpen, PlayerID: "a"}, nil)
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestLeave(t *testing.T) {
	threePlayers := func(t *testing.T) State {
		s := newTwoPlayerState(t)
		_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "c"}, nil)
		return s
	}

	t.Run("earlier seat keeps current player", func(t *testing.T) {
		s := threePlayers(t)
		_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, rolls(3))
		_, s = mustApply(t, s, Command{Type: CmdScore, PlayerID: "a", Category: CatThrees}, nil)
		_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "b"}, rolls(1, 2, 3, 4, 6))
		turnSeq := s.TurnSeq

		events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "a"}, nil)
		assert.False(t, ContainsEvent(events, EvtTurnAdvanced))
		assert.Equal(t, "b", s.Current().ID)
		assert.Equal(t, 1, s.RollCount, "b keeps their roll")
		assert.Equal(t, turnSeq, s.TurnSeq)
	})

	t.Run("current player hands the turn on", func(t *testing.T) {
		s := threePlayers(t)
		_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, rolls(5))
		turnSeq := s.TurnSeq

		events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "a"}, nil)
		assert.True(t, ContainsEvent(events, EvtTurnAdvanced))
		assert.Equal(t, "b", s.Current().ID)
		assert.Equal(t, 0, s.RollCount)
		assert.Equal(t, [NumDice]int{1, 1, 1, 1, 1}, s.Dice)
		assert.Greater(t, s.TurnSeq, turnSeq)
	})

	t.Run("last seat wraps to first", func(t *testing.T) {
		s := threePlayers(t)
		for _, id := range []string{"a", "b"} {
			_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: id}, rolls(2))
			_, s = mustApply(t, s, Command{Type: CmdScore, PlayerID: id, Category: CatTwos}, nil)
		}
		require.Equal(t, "c", s.Current().ID)

		_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "c"}, nil)
		assert.Equal(t, "a", s.Current().ID)
	})

	t.Run("reporter leaving releases the lock", func(t *testing.T) {
		s := threePlayers(t)
		_, s = mustApply(t, s, Command{Type: CmdReportStart, PlayerID: "c"}, nil)

		_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "c"}, nil)
		assert.False(t, s.Report.Locked())
		_, _ = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, rolls(1))
	})

	t.Run("roll overlay opener leaving closes it", func(t *testing.T) {
		s := threePlayers(t)
		_, s = mustApply(t, s, Command{Type: CmdRollOverlayOpen, PlayerID: "a"}, nil)

		events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "a"}, nil)
		assert.Contains(t, events, Event{Type: EvtRollOverlay, Show: false})
		assert.False(t, s.TurnFlags.RollOverlayOpen)
	})

	t.Run("last player out resets the match", func(t *testing.T) {
		s := newTwoPlayerState(t)
		_, s = mustApply(t, s, Command{Type: CmdRoll, PlayerID: "a"}, rolls(6))
		_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "a"}, nil)
		turnSeq := s.TurnSeq

		events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "b"}, nil)
		assert.True(t, ContainsEvent(events, EvtMatchReset))
		assert.Empty(t, s.Players)
		assert.Equal(t, 0, s.RollCount)
		assert.False(t, s.GameOver)
		assert.Greater(t, s.TurnSeq, turnSeq)

		_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "n"}, nil)
		assert.Equal(t, "Player1", s.Players[0].Name)
	})

	t.Run("remaining players already finished", func(t *testing.T) {
		s := newTwoPlayerState(t)
		var err error
		s, err = playOutExcept(s, "b", CatYahtzee)
		require.NoError(t, err)
		require.Equal(t, "b", s.Current().ID)

		events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "b"}, nil)
		assert.True(t, ContainsEvent(events, EvtGameCompleted))
		assert.True(t, s.GameOver)
		assert.Equal(t, "Player1", s.WinnerName)
	})

	t.Run("unknown player", func(t *testing.T) {
		s := newTwoPlayerState(t)
		_, _, err := Apply(s, Command{Type: CmdLeave, PlayerID: "z"}, nil)
		require.ErrorIs(t, err, ErrUnknownPlayer)
	})
}

// playOutExcept plays every category for every seat, leaving skipID with
// skipCat unscored and on the move.
func playOutExcept(s State, skipID string, skipCat Category) (State, error) {
	var err error
	for _, cat := range Categories {
		for range s.Players {
			cur := s.Current()
			if cur.ID == skipID && cat == skipCat {
				return s, nil
			}
			if _, s, err = Apply(s, Command{Type: CmdRoll, PlayerID: cur.ID}, rolls(6)); err != nil {
				return s, err
			}
			if _, s, err = Apply(s, Command{Type: CmdScore, PlayerID: cur.ID, Category: cat}, nil); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

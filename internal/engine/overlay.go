package engine

// DozTicket identifies one double-or-zero activation. The delayed heartbeat
// and resolution carry it back so they can tell whether the turn that
// scheduled them is still the one being played.
type DozTicket struct {
	Seq      uint64
	PlayerID string
	TurnSeq  uint64
}

func rollOverlayOpen(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	cur, err := requireCurrent(s, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if s.RollCount >= 3 {
		return nil, ErrWrongPhase
	}

	s.TurnFlags.RollOverlayOpen = true
	s.TurnFlags.RollOverlayBy = cur.ID
	return []Event{{Type: EvtRollOverlay, Show: true, PlayerID: cur.ID, PlayerName: cur.Name}}, nil
}

func rollOverlayClose(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	if _, err := requireCurrent(s, cmd.PlayerID); err != nil {
		return nil, err
	}
	if !s.TurnFlags.RollOverlayOpen || s.TurnFlags.RollOverlayBy != cmd.PlayerID {
		return nil, ErrWrongPhase
	}
	return closeRollOverlay(s), nil
}

func closeRollOverlay(s *State) []Event {
	if !s.TurnFlags.RollOverlayOpen {
		return nil
	}
	s.TurnFlags.RollOverlayOpen = false
	s.TurnFlags.RollOverlayBy = ""
	return []Event{{Type: EvtRollOverlay, Show: false}}
}

func dozOverlayStart(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	cur, err := requireCurrent(s, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if !canDoubleOrZero(s) {
		return nil, ErrWrongPhase
	}
	if s.TurnFlags.DozInProgress {
		return nil, ErrOverlayBusy
	}

	s.DozSeq++
	s.TurnFlags.DozInProgress = true
	s.TurnFlags.DozBy = cur.ID
	ticket := DozTicket{Seq: s.DozSeq, PlayerID: cur.ID, TurnSeq: s.TurnSeq}

	return []Event{
		{Type: EvtDozOverlay, Show: true, PlayerID: cur.ID, PlayerName: cur.Name, Duration: s.Rules.DozOverlay},
		sfx(SfxDoz),
		{Type: EvtTimerScheduled, Timer: CmdDozHeartbeat, Duration: s.Rules.HeartbeatDelay, Ticket: ticket},
		{Type: EvtTimerScheduled, Timer: CmdDozResolve, Duration: s.Rules.DozOverlay, Ticket: ticket},
	}, nil
}

// dozHeartbeat only plays while the overlay that scheduled it is still shown,
// so a cancelled activation never leaves a heartbeat running on clients.
func dozHeartbeat(s *State, cmd Command) ([]Event, error) {
	if cmd.Ticket.Seq != s.DozSeq || !s.TurnFlags.DozInProgress {
		return nil, ErrStaleTicket
	}
	return []Event{sfx(SfxHeartStart)}, nil
}

// dozResolve runs after the overlay duration. The reroll happens only if the
// ticket's turn is still being played at roll three with the mechanic unused;
// the overlay is closed regardless. A ticket superseded by a newer activation
// or already cleaned up on disconnect is dropped.
func dozResolve(s *State, cmd Command, r Roller) ([]Event, error) {
	t := cmd.Ticket
	if t.Seq != s.DozSeq {
		return nil, ErrStaleTicket
	}

	events := []Event{sfx(SfxHeartStop)}

	cur := currentPlayer(s)
	sameTurn := cur != nil && cur.ID == t.PlayerID && s.TurnSeq == t.TurnSeq
	if sameTurn && !s.GameOver && canDoubleOrZero(s) {
		rerollAll(s, r)
		s.TurnFlags.DoubleOrZeroUsed = true
		events = append(events, sfx(SfxRoll))
	}

	s.TurnFlags.DozInProgress = false
	s.TurnFlags.DozBy = ""
	s.DozSeq++
	return append(events, Event{Type: EvtDozOverlay, Show: false}), nil
}

package engine

import "strconv"

func join(s *State, cmd Command) ([]Event, error) {
	if cmd.PlayerID == "" {
		return nil, ErrUnknownPlayer
	}
	if len(s.Players) >= s.Rules.MaxPlayers {
		return nil, ErrMatchFull
	}

	p := NewPlayer(cmd.PlayerID, "Player"+strconv.Itoa(len(s.Players)+1))
	s.Players = append(s.Players, p)
	return []Event{{Type: EvtPlayerJoined, PlayerID: p.ID, PlayerName: p.Name}}, nil
}

// leave removes a player and releases everything they own: the report lock,
// the roll overlay, a pending double-or-zero. Removing the current player
// hands the turn to the next seat with a fresh turn; removing the last player
// resets the match.
func leave(s *State, cmd Command) ([]Event, error) {
	idx, p := findPlayer(s, cmd.PlayerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}

	var events []Event

	if s.Report.Locked() && s.Report.ReporterID == p.ID {
		s.Report = idleReport()
	}
	if s.TurnFlags.RollOverlayBy == p.ID {
		events = append(events, closeRollOverlay(s)...)
	}
	if s.TurnFlags.DozInProgress && s.TurnFlags.DozBy == p.ID {
		s.TurnFlags.DozInProgress = false
		s.TurnFlags.DozBy = ""
		s.DozSeq++
		events = append(events, sfx(SfxHeartStop), Event{Type: EvtDozOverlay, Show: false})
	}

	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	events = append(events, Event{Type: EvtPlayerLeft, PlayerID: p.ID, PlayerName: p.Name})

	if len(s.Players) == 0 {
		reset := NewEmptyState(s.Rules)
		reset.TurnSeq = s.TurnSeq + 1
		reset.DozSeq = s.DozSeq + 1
		*s = reset
		return append(events, Event{Type: EvtMatchReset}), nil
	}

	switch {
	case idx < s.Turn:
		s.Turn--
	case idx == s.Turn:
		if s.Turn >= len(s.Players) {
			s.Turn = 0
		}
		if !s.GameOver {
			startTurn(s)
			cur := s.Players[s.Turn]
			events = append(events, Event{Type: EvtTurnAdvanced, PlayerID: cur.ID, PlayerName: cur.Name})
		}
	}

	if !s.GameOver && allFinished(s) {
		events = append(events, finish(s, EndByScores, nil)...)
	}
	return events, nil
}

package engine

// Players take turns in seat order; a turn ends when the current player scores.

func resetDice(s *State) {
	for i := range s.Dice {
		s.Dice[i] = 1
		s.Held[i] = false
	}
	s.RollCount = 0
}

// startTurn resets every piece of per-turn state and invalidates pending
// double-or-zero tickets of the previous turn.
func startTurn(s *State) {
	resetDice(s)
	s.TurnFlags = TurnFlags{}
	s.TurnSeq++
}

func nextTurn(s *State) []Event {
	events := closeRollOverlay(s)
	s.Turn = (s.Turn + 1) % len(s.Players)
	startTurn(s)

	cur := s.Players[s.Turn]
	return append(events, Event{Type: EvtTurnAdvanced, PlayerID: cur.ID, PlayerName: cur.Name})
}

func allFinished(s *State) bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		for _, cat := range Categories {
			if _, ok := p.Scores[cat]; !ok {
				return false
			}
		}
	}
	return true
}

// finish ends the match. With EndByScores the strictly highest total wins and
// ties go to the earliest seat.
func finish(s *State, reason EndReason, winner *Player) []Event {
	events := closeRollOverlay(s)

	if winner == nil {
		for _, p := range s.Players {
			if winner == nil || p.Total > winner.Total {
				winner = p
			}
		}
	}

	s.GameOver = true
	s.EndedBy = reason
	s.WinnerID, s.WinnerName = "", ""
	if winner != nil {
		s.WinnerID, s.WinnerName = winner.ID, winner.Name
	}

	return append(events, Event{Type: EvtGameCompleted, PlayerID: s.WinnerID, PlayerName: s.WinnerName})
}

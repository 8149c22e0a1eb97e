package engine

func roll(s *State, cmd Command, r Roller) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	if _, err := requireCurrent(s, cmd.PlayerID); err != nil {
		return nil, err
	}
	if s.RollCount >= 3 {
		return nil, ErrWrongPhase
	}

	noneHeld := heldCount(s) == 0
	switch s.RollCount {
	case 1:
		s.TurnFlags.NoKeepBeforeRoll2 = noneHeld
	case 2:
		s.TurnFlags.NoKeepBeforeRoll3 = noneHeld
	}

	for i := range s.Dice {
		if !s.Held[i] {
			s.Dice[i] = r.Roll()
		}
	}
	s.RollCount++

	switch s.RollCount {
	case 2:
		s.TurnFlags.HanModeArmed = s.TurnFlags.NoKeepBeforeRoll2
	case 3:
		s.TurnFlags.HanModeTurn = s.TurnFlags.NoKeepBeforeRoll2 && s.TurnFlags.NoKeepBeforeRoll3
		if s.TurnFlags.HanModeTurn {
			s.TurnFlags.HanModeArmed = true
		}
	}

	events := closeRollOverlay(s)
	if IsYahtzee(s.Dice) && !s.TurnFlags.YahtzeeFanfareUsed {
		s.TurnFlags.YahtzeeFanfareUsed = true
		events = append(events, sfx(SfxFanfare))
	} else {
		events = append(events, sfx(SfxRoll))
	}
	return events, nil
}

func toggleHold(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	if _, err := requireCurrent(s, cmd.PlayerID); err != nil {
		return nil, err
	}
	if s.RollCount == 0 {
		return nil, ErrWrongPhase
	}
	if cmd.Index < 0 || cmd.Index >= NumDice {
		return nil, ErrBadIndex
	}

	s.Held[cmd.Index] = !s.Held[cmd.Index]
	return nil, nil
}

// canDoubleOrZero covers the shared preconditions of the direct command, the
// overlay start and the delayed resolution.
func canDoubleOrZero(s *State) bool {
	return s.RollCount == 3 && !s.TurnFlags.DoubleOrZeroUsed && !s.TurnFlags.HanModeTurn
}

// doubleOrZero rerolls all five dice once per turn. Recorded scores are not
// touched.
func doubleOrZero(s *State, cmd Command, r Roller) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	if _, err := requireCurrent(s, cmd.PlayerID); err != nil {
		return nil, err
	}
	if !canDoubleOrZero(s) {
		return nil, ErrWrongPhase
	}

	rerollAll(s, r)
	s.TurnFlags.DoubleOrZeroUsed = true
	return []Event{sfx(SfxRoll)}, nil
}

func godReYahtzee(s *State, cmd Command, r Roller) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	cur, err := requireCurrent(s, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if s.RollCount != 3 || !s.TurnFlags.HanModeTurn || !IsYahtzee(s.Dice) {
		return nil, ErrWrongPhase
	}

	rerollAll(s, r)
	if IsYahtzee(s.Dice) {
		return finish(s, EndByGodReYahtzee, cur), nil
	}
	return nil, nil
}

func score(s *State, cmd Command) ([]Event, error) {
	if err := guardPlay(s); err != nil {
		return nil, err
	}
	cur, err := requireCurrent(s, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if !cmd.Category.Valid() {
		return nil, ErrUnknownCategory
	}
	if _, ok := cur.Scores[cmd.Category]; ok {
		return nil, ErrAlreadyScored
	}
	if s.RollCount == 0 {
		return nil, ErrWrongPhase
	}

	v := Score(cmd.Category, s.Dice, s.TurnFlags.HanModeTurn)
	cur.Scores[cmd.Category] = v
	cur.OriginalScores[cmd.Category] = v
	cur.Cheated[cmd.Category] = false
	RecomputeTotals(cur)

	if allFinished(s) {
		return finish(s, EndByScores, nil), nil
	}
	return nextTurn(s), nil
}

func heldCount(s *State) int {
	n := 0
	for _, h := range s.Held {
		if h {
			n++
		}
	}
	return n
}

func rerollAll(s *State, r Roller) {
	for i := range s.Dice {
		s.Dice[i] = r.Roll()
		s.Held[i] = false
	}
}

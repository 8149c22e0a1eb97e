package engine

import (
	"maps"
	"math/rand"
)

func NewEmptyState(rules Rules) State {
	s := State{
		Players: []*Player{},
		Report:  idleReport(),
		Rules:   rules,
	}
	resetDice(&s)
	return s
}

func NewPlayer(id, name string) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Scores:         map[Category]int{},
		OriginalScores: map[Category]int{},
		Cheated:        map[Category]bool{},
	}
}

// Clone deep-copies s so that Apply never mutates a state that has already
// been handed to subscribers.
func (s State) Clone() State {
	out := s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Scores = maps.Clone(p.Scores)
		cp.OriginalScores = maps.Clone(p.OriginalScores)
		cp.Cheated = maps.Clone(p.Cheated)
		if cp.Scores == nil {
			cp.Scores = map[Category]int{}
		}
		if cp.OriginalScores == nil {
			cp.OriginalScores = map[Category]int{}
		}
		if cp.Cheated == nil {
			cp.Cheated = map[Category]bool{}
		}
		out.Players[i] = &cp
	}
	return out
}

// Current returns the player whose turn it is, or nil when nobody is seated.
func (s State) Current() *Player {
	return currentPlayer(&s)
}

func (s State) Player(id string) *Player {
	_, p := findPlayer(&s, id)
	return p
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func ContainsSfx(events []Event, name SfxName) bool {
	for _, event := range events {
		if event.Type == EvtSfx && event.Sfx == name {
			return true
		}
	}
	return false
}

type Roller interface {
	Roll() int
}

type RollerFunc func() int

func (f RollerFunc) Roll() int { return f() }

// DefaultRoller draws each die uniformly from 1..6.
var DefaultRoller Roller = RollerFunc(func() int { return rand.Intn(6) + 1 })

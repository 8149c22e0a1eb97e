package types

import "github.com/DoyleJ11/cheat-yahtzee-backend/internal/engine"

// Client message types.
const (
	MsgRoll             = "roll"
	MsgToggleHold       = "toggleHold"
	MsgScore            = "score"
	MsgDoubleOrZero     = "doubleOrZero"
	MsgGodReYahtzee     = "godReYahtzee"
	MsgCheatSet         = "cheatSet"
	MsgReportStart      = "reportStart"
	MsgReportSelect     = "reportSelect"
	MsgRollOverlayOpen  = "rollOverlayOpen"
	MsgRollOverlayClose = "rollOverlayClose"
	MsgDozOverlayStart  = "dozOverlayStart"
)

// Server message types.
const (
	MsgInit        = "init"
	MsgUpdate      = "update"
	MsgRollOverlay = "rollOverlay"
	MsgDozOverlay  = "dozOverlay"
	MsgSfx         = "sfx"
	MsgFull        = "full"
)

type ClientMessage struct {
	Type     string   `json:"type"`
	Index    *int     `json:"index,omitempty"`
	Category string   `json:"cat,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	TargetID string   `json:"targetId,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"`
	Version int           `json:"version,omitempty"`
	You     string        `json:"you,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Overlay *Overlay      `json:"overlay,omitempty"`
	Sfx     *Sfx          `json:"sfx,omitempty"`
}

type Overlay struct {
	Show   bool   `json:"show"`
	ByID   string `json:"byId,omitempty"`
	ByName string `json:"byName,omitempty"`
	Ms     int64  `json:"ms,omitempty"`
}

type Sfx struct {
	Name engine.SfxName `json:"name"`
	ByID string         `json:"byId,omitempty"`
}

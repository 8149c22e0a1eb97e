package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/match"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/types"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
	pingInterval = 30 * time.Second
	pingTimeout  = 10 * time.Second
)

type Options struct {
	// OriginPatterns is passed to websocket.Accept. Empty means same origin only.
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(m *match.Match, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan types.ServerMessage, outboxSize)
		reply := make(chan match.JoinResult, 1)
		if !m.Send(ctx, match.Join{Outbox: out, Reply: reply}) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		var res match.JoinResult
		select {
		case res = <-reply:
		case <-ctx.Done():
			return
		}

		if res.Full {
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			_ = wsjson.Write(wctx, conn, types.ServerMessage{Type: types.MsgFull})
			wcancel()
			conn.Close(websocket.StatusPolicyViolation, "match is full")
			return
		}

		playerID := res.PlayerID
		plog := log.With(zap.String("player", playerID))
		plog.Info("client connected", zap.String("remote", r.RemoteAddr))
		defer func() {
			// Leave must reach the match even though ctx is about to be cancelled.
			m.Send(context.WithoutCancel(ctx), match.Leave{PlayerID: playerID})
			plog.Info("client disconnected")
		}()

		// Writer goroutine
		go func() {
			for msg := range out {
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := wsjson.Write(wctx, conn, msg)
				wcancel()
				if err != nil {
					plog.Debug("write failed", zap.Error(err))
					cancel()
					return
				}
			}
			// The match closed our outbox: we were too slow or it shut down.
			conn.Close(websocket.StatusGoingAway, "")
		}()

		go ping(ctx, conn, cancel)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					plog.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				plog.Debug("bad json", zap.Error(err))
				continue
			}

			cmd, ok := toEngineCommand(cm, playerID)
			if !ok {
				plog.Debug("dropped message", zap.String("type", cm.Type))
				continue
			}

			if !m.Send(ctx, match.FromClient{Cmd: cmd}) {
				return
			}
		}
	}
}

func ping(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

// toEngineCommand maps a client message onto an engine command for playerID.
// Messages missing a required field are rejected here; everything else is
// validated by the engine.
func toEngineCommand(cm types.ClientMessage, playerID string) (engine.Command, bool) {
	cmd := engine.Command{PlayerID: playerID}

	switch cm.Type {
	case types.MsgRoll:
		cmd.Type = engine.CmdRoll
	case types.MsgDoubleOrZero:
		cmd.Type = engine.CmdDoubleOrZero
	case types.MsgGodReYahtzee:
		cmd.Type = engine.CmdGodReYahtzee
	case types.MsgReportStart:
		cmd.Type = engine.CmdReportStart
	case types.MsgRollOverlayOpen:
		cmd.Type = engine.CmdRollOverlayOpen
	case types.MsgRollOverlayClose:
		cmd.Type = engine.CmdRollOverlayClose
	case types.MsgDozOverlayStart:
		cmd.Type = engine.CmdDozOverlayStart

	case types.MsgToggleHold:
		if cm.Index == nil {
			return engine.Command{}, false
		}
		cmd.Type = engine.CmdToggleHold
		cmd.Index = *cm.Index

	case types.MsgScore:
		cat, ok := engine.ParseCategory(cm.Category)
		if !ok {
			return engine.Command{}, false
		}
		cmd.Type = engine.CmdScore
		cmd.Category = cat

	case types.MsgCheatSet:
		cat, ok := engine.ParseCategory(cm.Category)
		if !ok || cm.Value == nil {
			return engine.Command{}, false
		}
		cmd.Type = engine.CmdCheatSet
		cmd.Category = cat
		cmd.Value = *cm.Value

	case types.MsgReportSelect:
		cat, ok := engine.ParseCategory(cm.Category)
		if !ok || cm.TargetID == "" {
			return engine.Command{}, false
		}
		cmd.Type = engine.CmdReportSelect
		cmd.Category = cat
		cmd.TargetID = cm.TargetID

	default:
		return engine.Command{}, false
	}
	return cmd, true
}

package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/types"
)

const recordTimeout = 5 * time.Second

type Msg interface{ isMatchMsg() }

type FromClient struct {
	Cmd engine.Command
}

func (FromClient) isMatchMsg() {}

type Join struct {
	Outbox chan types.ServerMessage // where this client wants to receive messages
	Reply  chan JoinResult
}

func (Join) isMatchMsg() {}

type JoinResult struct {
	PlayerID string
	Full     bool
}

type Leave struct{ PlayerID string }

func (Leave) isMatchMsg() {}

type Shutdown struct{}

func (Shutdown) isMatchMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isMatchMsg() {}

// timerFired is posted by clock callbacks so delayed commands go through the
// same inbox as client commands.
type timerFired struct {
	id  uint64
	cmd engine.Command
}

func (timerFired) isMatchMsg() {}

type View struct {
	Version    int          `json:"version"`
	NumClients int          `json:"clients"`
	State      engine.State `json:"state"`
}

// Publisher mirrors broadcasts outside the process.
type Publisher interface {
	Publish(msg types.ServerMessage)
}

// Recorder stores the final state of a completed match.
type Recorder interface {
	Record(ctx context.Context, final engine.State) error
}

type Options struct {
	Rules    engine.Rules
	Clock    clockwork.Clock
	Roller   engine.Roller
	Logger   *zap.Logger
	Mirror   Publisher
	Recorder Recorder
}

// Match owns the one live game. Every mutation happens on the loop goroutine.
type Match struct {
	inbox     chan Msg
	state     engine.State
	version   int
	clients   map[string]chan types.ServerMessage
	timers    map[uint64]clockwork.Timer
	nextTimer uint64

	clock    clockwork.Clock
	roller   engine.Roller
	log      *zap.Logger
	mirror   Publisher
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, opts Options) *Match {
	ctx, cancel := context.WithCancel(parent)

	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Roller == nil {
		opts.Roller = engine.DefaultRoller
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Match{
		inbox:    make(chan Msg, 64),
		state:    engine.NewEmptyState(opts.Rules),
		clients:  make(map[string]chan types.ServerMessage),
		timers:   make(map[uint64]clockwork.Timer),
		clock:    opts.Clock,
		roller:   opts.Roller,
		log:      opts.Logger.Named("match"),
		mirror:   opts.Mirror,
		recorder: opts.Recorder,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go m.loop()
	return m
}

func (m *Match) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case Join:
				m.join(msg)

			case Leave:
				m.apply(engine.Command{Type: engine.CmdLeave, PlayerID: msg.PlayerID})
				if ch, ok := m.clients[msg.PlayerID]; ok {
					close(ch)
					delete(m.clients, msg.PlayerID)
				}
				m.log.Info("player left", zap.String("player", msg.PlayerID), zap.Int("clients", len(m.clients)))

			case FromClient:
				m.apply(msg.Cmd)

			case timerFired:
				delete(m.timers, msg.id)
				m.apply(msg.cmd)

			case GetState:
				msg.Reply <- View{
					Version:    m.version,
					NumClients: len(m.clients),
					State:      m.state,
				}

			case Shutdown:
				m.shutdown()
				return
			}
		}
	}
}

func (m *Match) join(msg Join) {
	id := uuid.NewString()
	events, next, err := engine.Apply(m.state, engine.Command{Type: engine.CmdJoin, PlayerID: id, At: m.clock.Now()}, m.roller)
	if err != nil {
		if !errors.Is(err, engine.ErrMatchFull) {
			m.log.Warn("join failed", zap.Error(err))
		}
		msg.Reply <- JoinResult{Full: true}
		return
	}

	m.state = next
	m.version++
	m.clients[id] = msg.Outbox
	msg.Reply <- JoinResult{PlayerID: id}

	st := m.state
	m.send(id, msg.Outbox, types.ServerMessage{Type: types.MsgInit, You: id, Version: m.version, State: &st})
	m.dispatch(events)
	m.broadcastState()
}

// apply runs cmd through the engine. Rejected commands are dropped without a
// reply to anyone.
func (m *Match) apply(cmd engine.Command) {
	cmd.At = m.clock.Now()
	events, next, err := engine.Apply(m.state, cmd, m.roller)
	if err != nil {
		m.log.Debug("command dropped",
			zap.String("type", string(cmd.Type)),
			zap.String("player", cmd.PlayerID),
			zap.Error(err))
		return
	}

	m.state = next
	m.dispatch(events)
	if cmd.Type.Mutates() {
		m.version++
		m.broadcastState()
	}
}

func (m *Match) dispatch(events []engine.Event) {
	for _, e := range events {
		switch e.Type {
		case engine.EvtSfx:
			m.broadcast(types.ServerMessage{Type: types.MsgSfx, Sfx: &types.Sfx{Name: e.Sfx, ByID: e.PlayerID}})

		case engine.EvtRollOverlay:
			m.broadcast(types.ServerMessage{Type: types.MsgRollOverlay, Overlay: &types.Overlay{
				Show: e.Show, ByID: e.PlayerID, ByName: e.PlayerName,
			}})

		case engine.EvtDozOverlay:
			m.broadcast(types.ServerMessage{Type: types.MsgDozOverlay, Overlay: &types.Overlay{
				Show: e.Show, ByID: e.PlayerID, ByName: e.PlayerName, Ms: e.Duration.Milliseconds(),
			}})

		case engine.EvtTimerScheduled:
			m.schedule(e)

		case engine.EvtGameCompleted:
			m.log.Info("match completed",
				zap.String("winner", m.state.WinnerName),
				zap.String("endedBy", string(m.state.EndedBy)))
			m.record(m.state)

		case engine.EvtPlayerJoined, engine.EvtPlayerLeft, engine.EvtTurnAdvanced, engine.EvtMatchReset:
			m.log.Debug(string(e.Type), zap.String("player", e.PlayerID), zap.String("name", e.PlayerName))
		}
	}
}

func (m *Match) schedule(e engine.Event) {
	m.nextTimer++
	id := m.nextTimer
	cmd := engine.Command{Type: e.Timer, PlayerID: e.Ticket.PlayerID, Ticket: e.Ticket}

	m.timers[id] = m.clock.AfterFunc(e.Duration, func() {
		m.Send(m.ctx, timerFired{id: id, cmd: cmd})
	})
}

func (m *Match) record(final engine.State) {
	if m.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := m.recorder.Record(ctx, final); err != nil {
			m.log.Warn("archive match result", zap.Error(err))
		}
	}()
}

func (m *Match) broadcastState() {
	st := m.state
	m.broadcast(types.ServerMessage{Type: types.MsgUpdate, Version: m.version, State: &st})
}

func (m *Match) broadcast(msg types.ServerMessage) {
	for id, ch := range m.clients {
		m.send(id, ch, msg)
	}
	if m.mirror != nil {
		m.mirror.Publish(msg)
	}
}

func (m *Match) send(id string, ch chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case ch <- msg:
		//ok
	default:
		// Client is slow/full - drop them. Their connection's Leave removes
		// the player.
		m.log.Warn("dropping slow client", zap.String("player", id))
		close(ch)
		delete(m.clients, id)
	}
}

func (m *Match) shutdown() {
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	for id, ch := range m.clients {
		close(ch) // Tell client no more messages
		delete(m.clients, id)
	}
	m.cancel()
}

// Inbox exposes the inbox so tests or the WS layer can send messages.
func (m *Match) Inbox() chan<- Msg { return m.inbox }

// Send delivers msg unless ctx or the match is done first.
func (m *Match) Send(ctx context.Context, msg Msg) bool {
	select {
	case m.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-m.ctx.Done():
		return false
	}
}

// Done is closed once the loop has exited and every outbox is closed.
func (m *Match) Done() <-chan struct{} { return m.done }

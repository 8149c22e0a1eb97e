package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/types"
)

const (
	maxReconnects = -1
	reconnectWait = 2 * time.Second
)

// Conn is the part of *nats.Conn the relay uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Relay mirrors outbound match broadcasts onto NATS subjects.
type Relay struct {
	conn    Conn
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

func Connect(url, subject string, log *zap.Logger) (*Relay, error) {
	log = log.Named("relay")
	opts := []nats.Option{
		nats.Name("cheat-yahtzee"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	r := New(nc, subject, log)
	r.nc = nc
	return r, nil
}

func New(conn Conn, subject string, log *zap.Logger) *Relay {
	return &Relay{conn: conn, subject: subject, log: log}
}

// Publish never blocks play: failures are logged and the message is lost.
func (r *Relay) Publish(msg types.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Warn("marshal broadcast", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if err := r.conn.Publish(Subject(r.subject, msg.Type), data); err != nil {
		r.log.Warn("publish broadcast", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (r *Relay) Close() error {
	if r.nc == nil {
		return nil
	}
	return r.nc.Drain()
}

func Subject(prefix, msgType string) string {
	return prefix + "." + msgType
}

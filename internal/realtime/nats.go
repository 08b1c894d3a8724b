package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subject carries every change event. Consumers filter on the event's own
// resource and user fields rather than on subject hierarchy.
const Subject = "bookswap.events"

// NATSBus relays events through a NATS cluster so a hub on any API node can
// deliver changes produced on any other node.
type NATSBus struct {
	conn *nats.Conn
}

func NewNATSBus(url string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSBus{conn: conn}, nil
}

func (b *NATSBus) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.conn.Publish(Subject, data)
}

func (b *NATSBus) Subscribe(handler func(Event)) (func(), error) {
	sub, err := b.conn.Subscribe(Subject, func(msg *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			slog.Warn("dropping malformed change event", "error", err)
			return
		}
		handler(evt)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}

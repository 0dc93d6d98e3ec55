package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectListingCreated   = "listing.created"
	SubjectContactRequested = "contact.requested"
	SubjectContactResponded = "contact.responded"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

const (
	connectWait   = 5 * time.Second
	maxReconnects = 5
	reconnectWait = 2 * time.Second
)

// Connect opens a NATS connection with bounded reconnects. Connection state
// changes are logged.
func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("factorylink"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	msg, err := message(subject, payload)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.PublishMsg(msg)
}

func message(subject string, payload any) (*nats.Msg, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = data
	return msg, nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error {
	return nil
}

type ListingCreated struct {
	ListingID string `json:"listing_id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Region    string `json:"region"`
	Complex   string `json:"complex"`
}

type ContactRequested struct {
	RequestID string `json:"request_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	ListingID string `json:"listing_id"`
}

type ContactResponded struct {
	RequestID string `json:"request_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

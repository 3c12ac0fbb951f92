package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Connect dials NATS and opens a JetStream context on the connection.
func Connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name("voteroom"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

// Envelope is the message published for every relayed notification.
type Envelope struct {
	EventID      string              `json:"event_id"`
	RoomID       int                 `json:"room_id"`
	PublishedAt  time.Time           `json:"published_at"`
	Notification models.Notification `json:"notification"`
}

// NATSRelay publishes relayed notifications to <prefix>.notifications.<roomID>.
// JetStream is used when a stream captures those subjects, core NATS otherwise.
type NATSRelay struct {
	nc           *nats.Conn
	js           jetstream.JetStream
	prefix       string
	useJetStream bool
}

// NewNATSRelay inspects the server for a stream bound to the notification
// subjects and picks the publish path accordingly.
func NewNATSRelay(ctx context.Context, nc *nats.Conn, js jetstream.JetStream, prefix string) (*NATSRelay, error) {
	r := &NATSRelay{nc: nc, js: js, prefix: prefix}

	if js != nil {
		stream, err := js.StreamNameBySubject(ctx, r.subjectPattern())
		switch {
		case err == nil:
			r.useJetStream = true
			log.Info().Str("stream", stream).Str("subject", r.subjectPattern()).Msg("relaying notifications through JetStream")
		case errors.Is(err, jetstream.ErrStreamNotFound):
			log.Info().Str("subject", r.subjectPattern()).Msg("no stream for notifications, using core NATS publish")
		default:
			return nil, fmt.Errorf("look up notification stream: %w", err)
		}
	}
	return r, nil
}

// Subject returns the subject a room's notifications are published on.
func (r *NATSRelay) Subject(roomID int) string {
	return NotificationSubject(r.prefix, roomID)
}

func (r *NATSRelay) subjectPattern() string {
	return r.prefix + ".notifications.>"
}

// Relay publishes n for roomID.
func (r *NATSRelay) Relay(ctx context.Context, roomID int, n models.Notification) error {
	data, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		RoomID:       roomID,
		PublishedAt:  time.Now().UTC(),
		Notification: n,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := r.Subject(roomID)
	if r.useJetStream {
		ack, err := r.js.Publish(ctx, subject, data)
		if err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
		log.Debug().Str("subject", subject).Str("stream", ack.Stream).Uint64("seq", ack.Sequence).Msg("notification relayed")
		return nil
	}

	if err := r.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	log.Debug().Str("subject", subject).Int("size", len(data)).Msg("notification relayed")
	return nil
}

// NotificationSubject builds the relay subject for a room.
func NotificationSubject(prefix string, roomID int) string {
	return fmt.Sprintf("%s.notifications.%d", prefix, roomID)
}

// NoopRelay logs relayed notifications without sending them anywhere.
type NoopRelay struct{}

func (NoopRelay) Relay(_ context.Context, roomID int, n models.Notification) error {
	log.Debug().Int("room_id", roomID).Str("kind", string(n.Kind)).Msg("relay disabled, dropping notification")
	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/partsd/internal/config"
)

// JetStreamSink publishes messages to a JetStream stream.
type JetStreamSink struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// Connect dials NATS and ensures the stream covering "<subject>.>" exists.
func Connect(ctx context.Context, cfg config.NATSConfig) (*JetStreamSink, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("nats notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("partsd"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := js.Stream(ctx, cfg.Stream); err != nil {
		if !errors.Is(err, jetstream.ErrStreamNotFound) {
			conn.Close()
			return nil, fmt.Errorf("failed to look up stream %s: %w", cfg.Stream, err)
		}
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "partsd device events",
			Subjects:    []string{cfg.Subject + ".>"},
			MaxAge:      7 * 24 * time.Hour,
			MaxBytes:    16 * 1024 * 1024,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
		}
		slog.Info("Created JetStream stream", "stream", cfg.Stream, "subject", cfg.Subject+".>")
	}

	slog.Info("NATS notifier connected", "url", cfg.URL, "stream", cfg.Stream)
	return &JetStreamSink{conn: conn, js: js}, nil
}

func (s *JetStreamSink) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := s.js.Publish(ctx, subject, data)
	return err
}

// Close closes the NATS connection.
func (s *JetStreamSink) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

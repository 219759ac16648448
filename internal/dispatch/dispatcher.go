package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"mediastream/internal/domain"
	"mediastream/internal/registry"
)

var (
	ErrMissingStreamID = errors.New("streamId is required")
	ErrMissingMagnet   = errors.New("magnet is required")
)

// Publisher delivers a payload on a named pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// StartCommand is the single message type consumed by the external
// download worker. The magnet reference is an uninspected string.
type StartCommand struct {
	StreamID string `json:"streamId"`
	Magnet   string `json:"magnet"`
}

// Dispatcher validates start requests, records intent in the registry
// and publishes exactly one start command per call. It performs no
// deduplication of concurrent starts for the same id; the worker is
// expected to make start idempotent.
type Dispatcher struct {
	publisher Publisher
	sessions  *registry.Sessions
	channel   string
	logger    *slog.Logger
}

func New(publisher Publisher, sessions *registry.Sessions, channel string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		publisher: publisher,
		sessions:  sessions,
		channel:   channel,
		logger:    logger,
	}
}

// Start records the pending session and publishes the start command.
func (d *Dispatcher) Start(ctx context.Context, id domain.StreamID, magnet string) error {
	if id == "" {
		return ErrMissingStreamID
	}
	if magnet == "" {
		return ErrMissingMagnet
	}

	// Intent is advisory: the worker owns session status from its first
	// write onward, so a failed write degrades polling but not the start.
	if err := d.sessions.SetStatus(ctx, id, domain.StreamPending); err != nil {
		d.logger.Warn("record start intent failed",
			slog.String("streamId", string(id)),
			slog.String("error", err.Error()),
		)
	}

	payload, err := json.Marshal(StartCommand{StreamID: string(id), Magnet: magnet})
	if err != nil {
		return fmt.Errorf("encode start command: %w", err)
	}
	if err := d.publisher.Publish(ctx, d.channel, payload); err != nil {
		return fmt.Errorf("publish start command: %w", err)
	}

	d.logger.Info("download start dispatched",
		slog.String("streamId", string(id)),
		slog.String("channel", d.channel),
	)
	return nil
}

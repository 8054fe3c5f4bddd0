package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/sirupsen/logrus"
)

// EventSink receives room lifecycle events (cache.EventQueue in production).
type EventSink interface {
	Publish(ctx context.Context, ev models.RoomEvent) error
}

// LogSink writes events to the logger only; used when no queue is configured.
type LogSink struct {
	Log *logrus.Logger
}

func (l LogSink) Publish(_ context.Context, ev models.RoomEvent) error {
	l.Log.WithFields(logrus.Fields{
		"event":   ev.Type,
		"network": ev.Network,
		"room":    ev.RoomID,
		"actor":   ev.Actor,
	}).Debug("room event")
	return nil
}

// NewEvent stamps a RoomEvent with a fresh id and the current time.
func NewEvent(typ models.RoomEventType, r models.Room, actor string) models.RoomEvent {
	return models.RoomEvent{
		ID:      uuid.New(),
		Type:    typ,
		Network: r.Network,
		RoomID:  r.ID,
		Actor:   actor,
		GameID:  r.GameID,
		At:      time.Now().UnixMilli(),
	}
}

// PublishEvent sends ev and logs, rather than returns, a failure.
func PublishEvent(ctx context.Context, sink EventSink, log *logrus.Logger, ev models.RoomEvent) {
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, ev); err != nil {
		log.WithFields(logrus.Fields{"event": ev.Type, "room": ev.RoomID}).Warnf("failed to publish room event: %v", err)
	}
}

package ws

import (
	"context"
	"encoding/json"

	"resume-match/internal/domain/match"
)

// Notifier forwards completed matches to the owner's open websocket connections.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) NotifyMatchCompleted(_ context.Context, rec match.Record) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(match.NewCompletedEvent(rec))
	if err != nil {
		n.hub.logger.WithError(err).Warn("encode ws match event failed")
		return
	}
	n.hub.Publish(rec.OwnerID, b)
}

package notify

import (
	"context"
	"sync"

	"github.com/andresmejia3/maskwatch/internal/log"
)

// LogPublisher is used when Redis is disabled. It logs every event and keeps
// the pending reminder in memory.
type LogPublisher struct {
	mu       sync.Mutex
	reminder *ResultEvent
}

func NewLog() *LogPublisher {
	return &LogPublisher{}
}

func (l *LogPublisher) PublishResult(_ context.Context, ev ResultEvent) error {
	log.Info(log.Fields{
		log.RoundIDKey: ev.RoundID,
		"class":        ev.Class,
		"faces":        ev.FaceCount,
		"mean":         ev.MeanConfidence,
		"passed":       ev.Passed,
	}, "[notify.PublishResult] classification result")
	return nil
}

func (l *LogPublisher) PublishLocation(_ context.Context, ev LocationEvent) error {
	log.Info(log.Fields{
		"latitude":  ev.Latitude,
		"longitude": ev.Longitude,
		"is_safe":   ev.IsSafe,
		"zones":     len(ev.Zones),
	}, "[notify.PublishLocation] location updated")
	return nil
}

func (l *LogPublisher) Remind(_ context.Context, ev ResultEvent) error {
	l.mu.Lock()
	l.reminder = &ev
	l.mu.Unlock()
	log.Warn(log.Fields{log.RoundIDKey: ev.RoundID}, "[notify.Remind] no mask detected, reminder raised")
	return nil
}

func (l *LogPublisher) CancelReminder(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reminder != nil {
		log.Info(nil, "[notify.CancelReminder] reminder cleared")
	}
	l.reminder = nil
	return nil
}

// Pending returns the active reminder, if any.
func (l *LogPublisher) Pending() (ResultEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reminder == nil {
		return ResultEvent{}, false
	}
	return *l.reminder, true
}

func (l *LogPublisher) Close() error { return nil }

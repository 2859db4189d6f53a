// Package notify fans classification results and location updates out to
// whoever is listening, and raises the "put your mask on" reminder.
package notify

import (
	"context"
	"time"

	"github.com/andresmejia3/maskwatch/internal/classify"
	"github.com/andresmejia3/maskwatch/internal/geo"
)

const (
	ResultChannel   = "maskwatch:result"
	LocationChannel = "maskwatch:location"
	ReminderKey     = "maskwatch:reminder"
)

// Publisher is the outbound side of the monitor.
type Publisher interface {
	PublishResult(ctx context.Context, ev ResultEvent) error
	PublishLocation(ctx context.Context, ev LocationEvent) error
	Remind(ctx context.Context, ev ResultEvent) error
	CancelReminder(ctx context.Context) error
	Close() error
}

// ResultEvent is the wire form of one classification round. The image is
// never published; subscribers get its digest instead.
type ResultEvent struct {
	RoundID        string    `json:"round_id"`
	Class          string    `json:"class"`
	FaceCount      int       `json:"face_count"`
	MeanConfidence float64   `json:"mean_confidence"`
	MinConfidence  float64   `json:"min_confidence"`
	MaxConfidence  float64   `json:"max_confidence"`
	SampleCount    int       `json:"sample_count"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	Passed         bool      `json:"passed"`
	ImageDigest    string    `json:"image_digest,omitempty"`
	At             time.Time `json:"at"`
}

// LocationEvent reports the tracker state after an accepted location update.
type LocationEvent struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	IsSafe    bool       `json:"is_safe"`
	Zones     []geo.Zone `json:"zones"`
	At        time.Time  `json:"at"`
}

// NewResultEvent flattens an aggregate into its published form.
func NewResultEvent(roundID string, r classify.Result, passed bool, digest string, at time.Time) ResultEvent {
	return ResultEvent{
		RoundID:        roundID,
		Class:          r.Class.String(),
		FaceCount:      r.FaceCount,
		MeanConfidence: r.MeanConfidence,
		MinConfidence:  r.MinConfidence,
		MaxConfidence:  r.MaxConfidence,
		SampleCount:    r.SampleCount,
		ElapsedMs:      r.Elapsed.Milliseconds(),
		Passed:         passed,
		ImageDigest:    digest,
		At:             at,
	}
}

// Package monitor runs the capture duty cycle: on every tick it asks the
// gate whether sampling is allowed, and if so captures a burst, classifies
// each frame, fuses the verdict and hands it to the store and publisher.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/andresmejia3/maskwatch/internal/classify"
	"github.com/andresmejia3/maskwatch/internal/gate"
	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/notify"
	"github.com/andresmejia3/maskwatch/internal/screen"
	"github.com/andresmejia3/maskwatch/internal/store"
	"github.com/andresmejia3/maskwatch/internal/types"
	"github.com/andresmejia3/maskwatch/internal/utils"
)

// ErrStopped is returned by commands issued after Run has returned.
var ErrStopped = errors.New("monitor stopped")

type Capturer interface {
	Capture(ctx context.Context) ([][]byte, error)
}

type Classifier interface {
	Classify(frame []byte) ([]types.FaceResult, error)
}

// Store is the persistence the monitor needs. It may be nil.
type Store interface {
	SaveZone(ctx context.Context, name string, loc geo.Location) error
	DeleteZone(ctx context.Context, name string) error
	ClearZones(ctx context.Context) error
	ListZones(ctx context.Context) ([]geo.Zone, error)
	InsertResult(ctx context.Context, r store.ResultRecord) (int64, error)
}

type Options struct {
	Interval            time.Duration
	Schedule            *gate.Schedule
	ConfidenceThreshold float64
	SafeZoneRadius      int
	MinDisplacement     float64

	// Now defaults to time.Now.
	Now func() time.Time
}

// Report is the outcome of the most recent round that got past the gate.
type Report struct {
	RoundID string          `json:"round_id"`
	Result  classify.Result `json:"-"`
	Passed  bool            `json:"passed"`
	At      time.Time       `json:"at"`
	Err     string          `json:"error,omitempty"`
}

// Status is a snapshot of the monitor as seen by the actor.
type Status struct {
	IsSafe   bool          `json:"is_safe"`
	Location *geo.Location `json:"location,omitempty"`
	Zones    []geo.Zone    `json:"zones"`
	Decision gate.Decision `json:"decision"`
	Radius   int           `json:"radius"`
}

type command struct {
	fn   func(t *geo.Tracker)
	done chan struct{}
}

type Monitor struct {
	opts       Options
	capturer   Capturer
	classifier Classifier
	probe      screen.Probe
	publisher  notify.Publisher
	store      Store

	// tracker is touched only by the actor goroutine.
	tracker *geo.Tracker

	cmds    chan command
	rounds  chan string
	stopped chan struct{}

	mu     sync.Mutex
	latest *Report
}

func New(opts Options, capturer Capturer, classifier Classifier, probe screen.Probe, publisher notify.Publisher, st Store) *Monitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		opts:       opts,
		capturer:   capturer,
		classifier: classifier,
		probe:      probe,
		publisher:  publisher,
		store:      st,
		tracker:    geo.NewTracker(opts.SafeZoneRadius, opts.MinDisplacement),
		cmds:       make(chan command),
		rounds:     make(chan string, 1),
		stopped:    make(chan struct{}),
	}
}

// Run drives the monitor until ctx is cancelled. It must be called once.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.stopped)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.loop(ctx) })
	g.Go(func() error { return m.roundWorker(ctx) })

	log.Info(log.Fields{"interval": m.opts.Interval.String()}, "[monitor.Run] monitor started")
	err := g.Wait()
	log.Info(nil, "[monitor.Run] monitor stopped")
	return err
}

// loop is the actor: it owns the tracker and schedules rounds.
func (m *Monitor) loop(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-m.cmds:
			c.fn(m.tracker)
			close(c.done)
		case <-ticker.C:
			d := m.decide(ctx, m.tracker.IsSafe())
			if !d.Capture {
				log.Debug(log.Fields{"reason": string(d.Reason)}, "[monitor.loop] capture skipped")
				continue
			}
			roundID := uuid.NewString()
			select {
			case m.rounds <- roundID:
			default:
				log.Debug(nil, "[monitor.loop] previous round still running, tick dropped")
			}
		}
	}
}

func (m *Monitor) roundWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case roundID := <-m.rounds:
			m.runRound(log.WithRoundID(ctx, roundID), roundID)
		}
	}
}

// decide consults the gate. A failing screen probe counts as screen off.
func (m *Monitor) decide(ctx context.Context, anySafe bool) gate.Decision {
	interactive, err := m.probe.Interactive(ctx)
	if err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[monitor.decide] screen probe failed")
		interactive = false
	}
	return gate.Decide(m.opts.Now(), m.opts.Schedule, anySafe, interactive)
}

func (m *Monitor) runRound(ctx context.Context, roundID string) {
	entry := log.FromContext(ctx)

	frames, err := m.capturer.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.ErrorWithTraceID(log.Fields{log.RoundIDKey: roundID, "error": err.Error()}, "[monitor.runRound] capture failed")
		m.setLatest(Report{RoundID: roundID, At: m.opts.Now(), Err: err.Error()})
		return
	}

	if len(frames) == 0 {
		return
	}

	// Elapsed covers classification only, not the camera burst.
	start := m.opts.Now()
	perFrame := make([][]types.FaceResult, 0, len(frames))
	for _, frame := range frames {
		faces, err := m.classifier.Classify(frame)
		if err != nil {
			log.ErrorWithTraceID(log.Fields{log.RoundIDKey: roundID, "error": err.Error()}, "[monitor.runRound] classification failed")
			m.setLatest(Report{RoundID: roundID, At: m.opts.Now(), Err: err.Error()})
			return
		}
		perFrame = append(perFrame, faces)
	}

	result, ok := classify.Aggregate(perFrame, frames[len(frames)-1], m.opts.Now().Sub(start))
	if !ok {
		return
	}

	// The user may have walked into a safe zone or locked the screen while we were busy.
	var anySafe bool
	if err := m.do(ctx, func(t *geo.Tracker) { anySafe = t.IsSafe() }); err != nil {
		return
	}
	if d := m.decide(ctx, anySafe); !d.Capture {
		entry.WithField("reason", string(d.Reason)).Info("[monitor.runRound] result discarded, gate closed during round")
		return
	}

	at := m.opts.Now()
	passed := result.MeanConfidence >= m.opts.ConfidenceThreshold
	m.setLatest(Report{RoundID: roundID, Result: result, Passed: passed, At: at})
	entry.WithField("passed", passed).Info(result.String())

	if m.store != nil {
		_, err := m.store.InsertResult(ctx, store.ResultRecord{
			RoundID:        roundID,
			Class:          result.Class.String(),
			FaceCount:      result.FaceCount,
			MeanConfidence: result.MeanConfidence,
			MinConfidence:  result.MinConfidence,
			MaxConfidence:  result.MaxConfidence,
			SampleCount:    result.SampleCount,
			ElapsedMs:      result.Elapsed.Milliseconds(),
			Passed:         passed,
			Image:          result.Image,
		})
		if err != nil {
			entry.WithField("error", err.Error()).Error("[monitor.runRound] failed to persist result")
		}
	}

	ev := notify.NewResultEvent(roundID, result, passed, utils.FrameDigest(result.Image), at)
	if err := m.publisher.PublishResult(ctx, ev); err != nil {
		entry.WithField("error", err.Error()).Error("[monitor.runRound] failed to publish result")
	}

	if result.Class == types.WithoutMask {
		err = m.publisher.Remind(ctx, ev)
	} else {
		err = m.publisher.CancelReminder(ctx)
	}
	if err != nil {
		entry.WithField("error", err.Error()).Error("[monitor.runRound] failed to update reminder")
	}
}

func (m *Monitor) setLatest(r Report) {
	m.mu.Lock()
	m.latest = &r
	m.mu.Unlock()
}

// Latest returns the most recent round report.
func (m *Monitor) Latest() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return Report{}, false
	}
	return *m.latest, true
}

// do runs fn on the actor goroutine and waits for it to finish.
func (m *Monitor) do(ctx context.Context, fn func(t *geo.Tracker)) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case m.cmds <- c:
	case <-m.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-c.done
	return nil
}

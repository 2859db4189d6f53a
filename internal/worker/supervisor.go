package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/types"
)

// Supervisor owns one classifier process and starts a fresh one after the
// previous process died or stopped speaking the protocol.
type Supervisor struct {
	ctx context.Context
	cfg Config

	mu      sync.Mutex
	w       *PythonWorker
	started int
	startFn func(ctx context.Context, id int, cfg Config) (*PythonWorker, error)
}

// NewSupervisor does not start Python until the first frame arrives.
func NewSupervisor(ctx context.Context, cfg Config) *Supervisor {
	return &Supervisor{ctx: ctx, cfg: cfg, startFn: NewPythonWorker}
}

func (s *Supervisor) Classify(frame []byte) ([]types.FaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		s.started++
		w, err := s.startFn(s.ctx, s.started, s.cfg)
		if err != nil {
			return nil, &ClassifierError{WorkerID: s.started, Err: err}
		}
		s.w = w
	}

	faces, err := s.w.Classify(frame)
	if err != nil && !errors.Is(err, ErrPython) {
		// Protocol or process failure: the stream is no longer in sync.
		s.w.Close()
		fields := log.Fields{"worker": s.w.ID, "error": err.Error()}
		// Safe to read once Close has waited for the process.
		if s.w.Cmd != nil && s.w.Cmd.Stderr.Len() > 0 {
			fields["stderr"] = s.w.Cmd.Stderr.String()
		}
		log.Warn(fields, "[worker.Supervisor] classifier process lost, restarting on next frame")
		s.w = nil
	}
	return faces, err
}

// Restarts reports how many processes have been started beyond the first.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started == 0 {
		return 0
	}
	return s.started - 1
}

func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		s.w.Close()
		s.w = nil
	}
}

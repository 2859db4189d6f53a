package worker

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/andresmejia3/maskwatch/internal/types"
	"github.com/andresmejia3/maskwatch/internal/utils" // Using the SafeCommand wrapper
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrPython marks an error the classifier reported itself; the process is still usable.
var ErrPython = errors.New("python worker error")

// maxResponse caps a single reply; a face list is a few hundred bytes.
const maxResponse = 16 * 1024 * 1024

// ClassifierError is an opaque failure reported by, or while talking to, the
// external classifier. It covers one sampling round only.
type ClassifierError struct {
	WorkerID int
	Err      error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier worker %d: %v", e.WorkerID, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// Config describes how to launch the Python classifier.
type Config struct {
	Python      string
	Script      string
	ReadTimeout time.Duration
}

type PythonWorker struct {
	ID          int
	Cmd         *utils.SafeCommand
	Stdin       io.WriteCloser
	DataPipe    io.ReadCloser
	ReadTimeout time.Duration
}

// NewPythonWorker starts the classifier process. Frames go in on stdin and
// results come back on FD 3 so Python's own prints never corrupt the stream.
func NewPythonWorker(ctx context.Context, id int, cfg Config) (*PythonWorker, error) {
	py := utils.NewSafeCommand(ctx, cfg.Python, "-u", cfg.Script)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &PythonWorker{
		ID:          id,
		Cmd:         py,
		Stdin:       stdin,
		DataPipe:    r,
		ReadTimeout: cfg.ReadTimeout,
	}, nil
}

// Communicate sends one length-prefixed message and reads one back.
func (w *PythonWorker) Communicate(data []byte) ([]byte, error) {
	// Protocol: [Length][Data]
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	if d, ok := w.DataPipe.(interface{ SetReadDeadline(time.Time) error }); ok && w.ReadTimeout > 0 {
		if err := d.SetReadDeadline(time.Now().Add(w.ReadTimeout)); err != nil {
			return nil, err
		}
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch the "ModuleNotFoundError" crash
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > maxResponse {
		return nil, fmt.Errorf("response of %d bytes exceeds limit", respLen)
	}
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

// Classify sends one JPEG frame and returns the faces the model found in it.
// Every failure is returned as a *ClassifierError.
func (w *PythonWorker) Classify(frame []byte) ([]types.FaceResult, error) {
	resp, err := w.Communicate(frame)
	if err != nil {
		return nil, &ClassifierError{WorkerID: w.ID, Err: err}
	}

	var faces []types.FaceResult
	if err := json.Unmarshal(resp, &faces); err != nil {
		// Check if it's a Python error object (e.g. {"error": "..."})
		var errorResult types.ErrorResult
		if json.Unmarshal(resp, &errorResult) == nil && errorResult.Error != "" {
			return nil, &ClassifierError{WorkerID: w.ID, Err: fmt.Errorf("%w: %s", ErrPython, errorResult.Error)}
		}
		return nil, &ClassifierError{WorkerID: w.ID, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return faces, nil
}

func (w *PythonWorker) Close() {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd != nil {
		w.Cmd.Wait()
	}
}

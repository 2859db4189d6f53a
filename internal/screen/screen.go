// Package screen reports whether the user is actively looking at the device.
package screen

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync/atomic"
)

// Probe answers "is the screen on and interactive right now".
type Probe interface {
	Interactive(ctx context.Context) (bool, error)
}

// Static always returns the same answer.
type Static bool

func (s Static) Interactive(context.Context) (bool, error) { return bool(s), nil }

// Manual holds a value pushed in by the host (e.g. through the HTTP API).
type Manual struct {
	on atomic.Bool
}

func NewManual(initial bool) *Manual {
	m := &Manual{}
	m.on.Store(initial)
	return m
}

func (m *Manual) Set(on bool) { m.on.Store(on) }

func (m *Manual) Interactive(context.Context) (bool, error) { return m.on.Load(), nil }

// Command runs an external check; exit status 0 means interactive and any
// other exit status means the screen is off.
type Command struct {
	Name string
	Args []string
}

func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("screen probe command is empty")
	}
	return &Command{Name: argv[0], Args: argv[1:]}, nil
}

func (c *Command) Interactive(ctx context.Context) (bool, error) {
	err := exec.CommandContext(ctx, c.Name, c.Args...).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("screen probe %s: %w", c.Name, err)
}

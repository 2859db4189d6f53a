// Package api exposes the monitor to the host over HTTP: zone management,
// location and screen updates, and the latest classification verdict.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/monitor"
	"github.com/andresmejia3/maskwatch/internal/store"
)

// Monitor is the subset of *monitor.Monitor the handlers drive.
type Monitor interface {
	AddZone(ctx context.Context, name string, loc geo.Location, current bool) error
	RemoveZone(ctx context.Context, name string) error
	ClearZones(ctx context.Context) error
	Zones(ctx context.Context) ([]geo.Zone, error)
	UpdateLocation(ctx context.Context, loc geo.Location) (bool, error)
	Status(ctx context.Context) (monitor.Status, error)
	Latest() (monitor.Report, bool)
}

// ScreenSetter receives screen state pushed by the host.
type ScreenSetter interface {
	Set(on bool)
}

// ResultLister serves result history.
type ResultLister interface {
	ListResults(ctx context.Context, limit int) ([]store.ResultRecord, error)
}

type ServerOption func(*Server) error

type Server struct {
	engine    *fiber.App
	validator *validator.Validate
	monitor   Monitor
	screen    ScreenSetter
	results   ResultLister
	errs      *ErrorHandler
}

// NewFiber builds the fiber app with jsoniter as the JSON codec.
func NewFiber() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "maskwatch",
		BodyLimit:             1024 * 1024,
		StrictRouting:         true,
		CaseSensitive:         true,
		UnescapePath:          true,
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		server.engine = NewFiber()
	}
	if server.validator == nil {
		server.validator = validator.New()
	}
	if server.monitor == nil {
		return nil, errors.New("monitor is required")
	}
	server.errs = NewErrorHandler()

	server.routes()
	return server, nil
}

func WithFiber(app *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = app
		return nil
	}
}

func WithValidator(v *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = v
		return nil
	}
}

func WithMonitor(m Monitor) ServerOption {
	return func(s *Server) error {
		s.monitor = m
		return nil
	}
}

// WithScreen enables PUT /screen. Without it the endpoint answers 409.
func WithScreen(setter ScreenSetter) ServerOption {
	return func(s *Server) error {
		s.screen = setter
		return nil
	}
}

// WithResults enables GET /results.
func WithResults(lister ResultLister) ServerOption {
	return func(s *Server) error {
		s.results = lister
		return nil
	}
}

func (s *Server) routes() {
	s.engine.Use(NewRequestIDMiddleware())
	s.engine.Use(NewLoggingMiddleware())

	router := s.engine.Group("/api/v1")
	router.Get("/health", s.Health)

	router.Get("/zones", s.ListZones)
	router.Post("/zones", s.AddZone)
	router.Delete("/zones/:name", s.RemoveZone)
	router.Delete("/zones", s.ClearZones)

	router.Post("/locations", s.UpdateLocation)
	router.Put("/screen", s.SetScreen)

	router.Get("/status", s.Status)
	router.Get("/results/latest", s.LatestResult)
	router.Get("/results", s.ListResults)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.engine }

func (s *Server) Listen(addr string) error {
	log.Info(log.Fields{"address": addr}, "[api.Listen] http api listening")
	return s.engine.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.engine.ShutdownWithContext(ctx)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andresmejia3/maskwatch/internal/api"
	"github.com/andresmejia3/maskwatch/internal/capture"
	"github.com/andresmejia3/maskwatch/internal/config"
	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/monitor"
	"github.com/andresmejia3/maskwatch/internal/notify"
	"github.com/andresmejia3/maskwatch/internal/screen"
	"github.com/andresmejia3/maskwatch/internal/utils"
	"github.com/andresmejia3/maskwatch/internal/worker"
)

var monitorOpts struct {
	Device   string
	Interval string
	Listen   string
	NoAPI    bool
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the capture loop and the HTTP API until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		applyMonitorFlags(Cfg)
		if err := Cfg.Validate(); err != nil {
			utils.Die("Invalid configuration", err, nil)
		}
		if err := runMonitor(cmd.Context(), Cfg); err != nil {
			utils.Die("Monitor failed", err, nil)
		}
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorOpts.Device, "device", "d", "", "Camera device (overrides capture.device)")
	monitorCmd.Flags().StringVarP(&monitorOpts.Interval, "interval", "i", "", "Capture interval, e.g. 15s (overrides capture.interval)")
	monitorCmd.Flags().StringVarP(&monitorOpts.Listen, "listen", "l", "", "HTTP listen address (overrides api.listen)")
	monitorCmd.Flags().BoolVar(&monitorOpts.NoAPI, "no-api", false, "Do not start the HTTP API")
	rootCmd.AddCommand(monitorCmd)
}

func applyMonitorFlags(cfg *config.Config) {
	if monitorOpts.Device != "" {
		cfg.Capture.Device = monitorOpts.Device
	}
	if monitorOpts.Interval != "" {
		cfg.Capture.Interval = monitorOpts.Interval
	}
	if monitorOpts.Listen != "" {
		cfg.API.Listen = monitorOpts.Listen
	}
	if monitorOpts.NoAPI {
		cfg.API.Enabled = false
	}
}

// newProbe returns the configured screen probe, plus the manual switch when
// the host pushes screen state over the API.
func newProbe(cfg *config.Config) (screen.Probe, *screen.Manual, error) {
	switch cfg.Screen.Mode {
	case "command":
		p, err := screen.NewCommand(cfg.Screen.Command)
		return p, nil, err
	case "manual":
		m := screen.NewManual(true)
		return m, m, nil
	default:
		return screen.Static(true), nil, nil
	}
}

func newPublisher(ctx context.Context, cfg *config.Config) (notify.Publisher, error) {
	if !cfg.Redis.Enabled {
		return notify.NewLog(), nil
	}
	return notify.NewRedis(ctx, notify.RedisOptions{
		Address:     cfg.Redis.Address,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		ReminderTTL: cfg.ReminderTTL(),
	})
}

func monitorOptions(cfg *config.Config) (monitor.Options, error) {
	schedule, err := cfg.Schedule.Parse()
	if err != nil {
		return monitor.Options{}, err
	}
	return monitor.Options{
		Interval:            cfg.CaptureInterval(),
		Schedule:            schedule,
		ConfidenceThreshold: cfg.Classifier.ConfidenceThreshold,
		SafeZoneRadius:      cfg.Location.SafeZoneRadius,
		MinDisplacement:     cfg.Location.MinDisplacement,
	}, nil
}

func runMonitor(ctx context.Context, cfg *config.Config) error {
	opts, err := monitorOptions(cfg)
	if err != nil {
		return err
	}
	probe, manual, err := newProbe(cfg)
	if err != nil {
		return err
	}
	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	classifier := worker.NewSupervisor(ctx, worker.Config{
		Python:      cfg.Classifier.Python,
		Script:      cfg.Classifier.Script,
		ReadTimeout: cfg.ClassifierTimeout(),
	})
	defer classifier.Close()

	cam := capture.New(cfg.Capture.InputFormat, cfg.Capture.Device, cfg.Capture.TotalCapture, cfg.Capture.TotalProcessed)
	m := monitor.New(opts, cam, classifier, probe, publisher, DB)

	fmt.Fprintf(os.Stderr, "📷 Monitoring %s every %s\n", cfg.Capture.Device, opts.Interval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(ctx) })
	g.Go(func() error { return m.LoadZones(ctx) })

	if cfg.API.Enabled {
		serverOpts := []api.ServerOption{api.WithMonitor(m), api.WithResults(DB)}
		if manual != nil {
			serverOpts = append(serverOpts, api.WithScreen(manual))
		}
		srv, err := api.NewServer(serverOpts...)
		if err != nil {
			return err
		}

		g.Go(func() error { return srv.Listen(cfg.API.Listen) })
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info(nil, "[cmd.monitor] shutdown complete")
	return err
}

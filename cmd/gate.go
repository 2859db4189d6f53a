package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/gate"
	"github.com/andresmejia3/maskwatch/internal/utils"
)

var gateOpts struct {
	At          string
	Begin       string
	End         string
	Safe        bool
	Interactive bool
}

var gateCmd = &cobra.Command{
	Use:         "gate",
	Short:       "Dry-run the capture gate for a time, zone state and screen state",
	Annotations: map[string]string{skipDB: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		begin, end := Cfg.Schedule.Begin, Cfg.Schedule.End
		if gateOpts.Begin != "" || gateOpts.End != "" {
			begin, end = gateOpts.Begin, gateOpts.End
		}
		if err := runGate(os.Stdout, time.Now(), gateOpts.At, begin, end, gateOpts.Safe, gateOpts.Interactive); err != nil {
			utils.Die("Gate check failed", err, nil)
		}
	},
}

func init() {
	gateCmd.Flags().StringVar(&gateOpts.At, "at", "", "Wall-clock time to evaluate (HH:MM[:SS], default now)")
	gateCmd.Flags().StringVar(&gateOpts.Begin, "begin", "", "Schedule start (overrides schedule.begin)")
	gateCmd.Flags().StringVar(&gateOpts.End, "end", "", "Schedule end (overrides schedule.end)")
	gateCmd.Flags().BoolVar(&gateOpts.Safe, "safe", false, "Pretend the device is inside a safe zone")
	gateCmd.Flags().BoolVar(&gateOpts.Interactive, "interactive", true, "Pretend the screen is on and interactive")
	rootCmd.AddCommand(gateCmd)
}

func runGate(out io.Writer, now time.Time, at, begin, end string, safe, interactive bool) error {
	var schedule *gate.Schedule
	if begin != "" || end != "" {
		s, err := gate.ParseSchedule(begin, end)
		if err != nil {
			return err
		}
		schedule = s
	}

	if at != "" {
		tod, err := gate.ParseTimeOfDay(at)
		if err != nil {
			return err
		}
		y, m, d := now.Date()
		now = time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(time.Duration(tod))
	}

	d := gate.Decide(now, schedule, safe, interactive)

	window := "always"
	if schedule != nil {
		window = schedule.String()
	}
	fmt.Fprintf(out, "Time:     %s\n", gate.Of(now))
	fmt.Fprintf(out, "Schedule: %s\n", window)
	fmt.Fprintf(out, "Safe:     %v\n", safe)
	fmt.Fprintf(out, "Screen:   %v\n", interactive)
	if d.Capture {
		fmt.Fprintln(out, "✅ capture")
	} else {
		fmt.Fprintf(out, "⏸️  skip: %s\n", d.Reason)
	}
	return nil
}

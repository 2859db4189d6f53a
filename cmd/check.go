package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/utils"
)

var checkOpts struct {
	Latitude  float64
	Longitude float64
	Radius    int
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a location against the stored safe zones",
	Run: func(cmd *cobra.Command, args []string) {
		zones, err := DB.ListZones(cmd.Context())
		if err != nil {
			utils.Die("Failed to load zones", err, nil)
		}
		radius := Cfg.Location.SafeZoneRadius
		if cmd.Flags().Changed("radius") {
			radius = checkOpts.Radius
		}
		loc := geo.Location{Latitude: checkOpts.Latitude, Longitude: checkOpts.Longitude}
		if err := runCheck(os.Stdout, zones, loc, radius); err != nil {
			utils.Die("Check failed", err, nil)
		}
	},
}

func init() {
	checkCmd.Flags().Float64Var(&checkOpts.Latitude, "lat", 0, "Current latitude")
	checkCmd.Flags().Float64Var(&checkOpts.Longitude, "lon", 0, "Current longitude")
	checkCmd.Flags().IntVarP(&checkOpts.Radius, "radius", "r", 50, "Safe-zone radius in meters (overrides location.safe_zone_radius)")
	checkCmd.MarkFlagRequired("lat")
	checkCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(checkCmd)
}

// runCheck loads zones into a fresh tracker and prints the evaluation of loc.
func runCheck(out io.Writer, zones []geo.Zone, loc geo.Location, radius int) error {
	if radius < 0 {
		return fmt.Errorf("radius must be >= 0, got %d", radius)
	}
	tracker := geo.NewTracker(radius, 0)
	for _, z := range zones {
		if err := tracker.Add(z.Name, z.Location(), false); err != nil {
			return err
		}
	}
	if _, err := tracker.Update(loc); err != nil {
		return err
	}

	if len(zones) == 0 {
		fmt.Fprintln(out, "No safe zones defined.")
	} else {
		printZones(out, tracker.Zones(), true)
	}

	if tracker.IsSafe() {
		fmt.Fprintf(out, "\n🏠 (%.6f, %.6f) is inside a safe zone (radius %d m): capture paused\n", loc.Latitude, loc.Longitude, radius)
	} else {
		fmt.Fprintf(out, "\n🚶 (%.6f, %.6f) is outside every safe zone (radius %d m): capture allowed\n", loc.Latitude, loc.Longitude, radius)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/utils"
)

var zoneOpts struct {
	Latitude  float64
	Longitude float64
}

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage safe zones (no capture happens inside one)",
}

var zoneAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add or move a safe zone",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := strings.TrimSpace(args[0])
		loc := geo.Location{Latitude: zoneOpts.Latitude, Longitude: zoneOpts.Longitude}
		if name == "" {
			utils.Die("Invalid zone name", fmt.Errorf("name must not be blank"), nil)
		}
		if err := loc.Validate(); err != nil {
			utils.Die("Invalid zone center", err, nil)
		}
		if err := DB.SaveZone(cmd.Context(), name, loc); err != nil {
			utils.Die("Failed to save zone", err, nil)
		}
		fmt.Printf("✅ Zone %q saved at (%.6f, %.6f)\n", name, loc.Latitude, loc.Longitude)
	},
}

var zoneRmCmd = &cobra.Command{
	Use:     "rm [name]",
	Aliases: []string{"remove"},
	Short:   "Remove a safe zone",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := DB.DeleteZone(cmd.Context(), args[0]); err != nil {
			utils.Die("Failed to remove zone", err, nil)
		}
		fmt.Printf("🗑️  Zone %q removed\n", args[0])
	},
}

var zoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all safe zones",
	Run: func(cmd *cobra.Command, args []string) {
		runZoneList(cmd.Context(), os.Stdout)
	},
}

var zoneClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every safe zone",
	Run: func(cmd *cobra.Command, args []string) {
		if err := DB.ClearZones(cmd.Context()); err != nil {
			utils.Die("Failed to clear zones", err, nil)
		}
		fmt.Println("🗑️  All zones removed")
	},
}

func init() {
	zoneAddCmd.Flags().Float64Var(&zoneOpts.Latitude, "lat", 0, "Latitude of the zone center")
	zoneAddCmd.Flags().Float64Var(&zoneOpts.Longitude, "lon", 0, "Longitude of the zone center")
	zoneAddCmd.MarkFlagRequired("lat")
	zoneAddCmd.MarkFlagRequired("lon")

	zoneCmd.AddCommand(zoneAddCmd, zoneRmCmd, zoneListCmd, zoneClearCmd)
	rootCmd.AddCommand(zoneCmd)
}

func runZoneList(ctx context.Context, out io.Writer) {
	zones, err := DB.ListZones(ctx)
	if err != nil {
		utils.Die("Failed to list zones", err, nil)
	}
	if len(zones) == 0 {
		fmt.Fprintln(out, "No safe zones defined.")
		return
	}
	printZones(out, zones, false)
}

// printZones renders zones as a table; withDistance adds the live columns.
func printZones(out io.Writer, zones []geo.Zone, withDistance bool) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	if withDistance {
		fmt.Fprintln(w, "NAME\tLATITUDE\tLONGITUDE\tDISTANCE (m)\tSAFE")
		fmt.Fprintln(w, "----\t--------\t---------\t------------\t----")
	} else {
		fmt.Fprintln(w, "NAME\tLATITUDE\tLONGITUDE")
		fmt.Fprintln(w, "----\t--------\t---------")
	}

	for _, z := range zones {
		if withDistance {
			fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%d\t%v\n", z.Name, z.Latitude, z.Longitude, z.Distance, z.IsSafe)
		} else {
			fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", z.Name, z.Latitude, z.Longitude)
		}
	}
	w.Flush()
}

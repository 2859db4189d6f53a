package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/store"
	"github.com/andresmejia3/maskwatch/internal/utils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent classification rounds",
	Run: func(cmd *cobra.Command, args []string) {
		if historyLimit < 0 {
			utils.Die("Invalid limit", fmt.Errorf("must be >= 0, got %d", historyLimit), nil)
		}
		records, err := DB.ListResults(cmd.Context(), historyLimit)
		if err != nil {
			utils.Die("Failed to list results", err, nil)
		}
		printHistory(os.Stdout, records)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of rounds to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(out io.Writer, records []store.ResultRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No classification rounds recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCLASS\tFACES\tMEAN\tMIN\tMAX\tSAMPLES\tTOOK\tPASSED")
	fmt.Fprintln(w, "----\t-----\t-----\t----\t---\t---\t-------\t----\t------")

	for _, r := range records {
		took := time.Duration(r.ElapsedMs) * time.Millisecond
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%d\t%s\t%v\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Class, r.FaceCount,
			r.MeanConfidence, r.MinConfidence, r.MaxConfidence, r.SampleCount, utils.FmtDuration(took), r.Passed)
	}
	w.Flush()
}

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/utils"
)

var (
	resetDB   bool
	resetLogs bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset system state (Database, Logs)",
	Long:  "Clears all data. By default, it resets everything. Use flags to clear specific components.",
	Run: func(cmd *cobra.Command, args []string) {
		// If no flags are set, default to clearing EVERYTHING
		if !resetDB && !resetLogs {
			resetDB = true
			resetLogs = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetDB {
			if confirm(reader, os.Stdout, "⚠️  Are you sure you want to DROP all zones and classification history?") {
				fmt.Println("🗑️  Clearing Database...")
				if err := DB.Reset(cmd.Context()); err != nil {
					utils.Die("Failed to reset database", err, nil)
				}
			}
		}

		if resetLogs {
			dir := logDir()
			if dir != "off" && confirm(reader, os.Stdout, fmt.Sprintf("⚠️  Are you sure you want to delete all logs in %s?", dir)) {
				fmt.Println("🗑️  Clearing Logs...")
				removeDir(dir)
			}
		}

		fmt.Println("✨ System Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetDB, "data", false, "Drop zones and classification history")
	resetCmd.Flags().BoolVar(&resetLogs, "logs", false, "Delete rotated log files")
	rootCmd.AddCommand(resetCmd)
}

func logDir() string {
	if dir := os.Getenv("MASKWATCH_LOG_DIR"); dir != "" {
		return dir
	}
	return "./storage/logs"
}

func confirm(r *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}

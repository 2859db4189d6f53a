package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/maskwatch/internal/classify"
	"github.com/andresmejia3/maskwatch/internal/monitor"
	"github.com/andresmejia3/maskwatch/internal/types"
	"github.com/andresmejia3/maskwatch/internal/utils"
	"github.com/andresmejia3/maskwatch/internal/worker"
)

var classifyOpts struct {
	Threshold float64
}

var classifyCmd = &cobra.Command{
	Use:         "classify [images...]",
	Short:       "Classify JPEG images as one sampling round",
	Long:        "Runs every image through the classifier and fuses the answers exactly as a live round would. Images are treated oldest first; the last one is kept as the round's image.",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{skipDB: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		tasks, err := loadFrames(args)
		if err != nil {
			utils.Die("Failed to read images", err, nil)
		}

		threshold := Cfg.Classifier.ConfidenceThreshold
		if cmd.Flags().Changed("threshold") {
			threshold = classifyOpts.Threshold
		}
		if threshold < 0 || threshold > 1 {
			utils.Die("Invalid threshold", fmt.Errorf("must be between 0.0 and 1.0, got %f", threshold), nil)
		}

		w, err := worker.NewPythonWorker(cmd.Context(), 1, worker.Config{
			Python:      Cfg.Classifier.Python,
			Script:      Cfg.Classifier.Script,
			ReadTimeout: Cfg.ClassifierTimeout(),
		})
		if err != nil {
			utils.Die("Worker startup failed", err, nil)
		}
		defer w.Close()

		res, err := runClassify(w, tasks, os.Stderr)
		if err != nil {
			utils.Die("Classification failed", err, w.Cmd)
		}
		printVerdict(os.Stdout, res, threshold)
	},
}

func init() {
	classifyCmd.Flags().Float64VarP(&classifyOpts.Threshold, "threshold", "t", 0.8, "Mean confidence needed to pass (overrides classifier.confidence_threshold)")
	rootCmd.AddCommand(classifyCmd)
}

func loadFrames(paths []string) ([]types.FrameTask, error) {
	tasks := make([]types.FrameTask, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, types.FrameTask{Index: i, Data: data})
	}
	return tasks, nil
}

// runClassify sends every frame through c and aggregates the answers.
func runClassify(c monitor.Classifier, tasks []types.FrameTask, progress io.Writer) (classify.Result, error) {
	bar := progressbar.NewOptions(len(tasks),
		progressbar.OptionSetDescription("🔍 Classifying"),
		progressbar.OptionSetWriter(progress), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	start := time.Now()
	perFrame := make([][]types.FaceResult, 0, len(tasks))
	for _, task := range tasks {
		faces, err := c.Classify(task.Data)
		if err != nil {
			return classify.Result{}, fmt.Errorf("frame %d: %w", task.Index, err)
		}
		perFrame = append(perFrame, faces)
		bar.Add(1)
	}
	bar.Finish()
	fmt.Fprintln(progress)

	var last []byte
	if len(tasks) > 0 {
		last = tasks[len(tasks)-1].Data
	}
	res, ok := classify.Aggregate(perFrame, last, time.Since(start))
	if !ok {
		return classify.Result{}, fmt.Errorf("no frames to classify")
	}
	return res, nil
}

func printVerdict(out io.Writer, res classify.Result, threshold float64) {
	fmt.Fprintln(out, res.String())
	fmt.Fprintf(out, "Passed: %v (mean %.4f, threshold %.2f)\n", res.MeanConfidence >= threshold, res.MeanConfidence, threshold)
	if res.Class == types.WithoutMask {
		fmt.Fprintln(out, "😷 No mask detected: a reminder would be raised")
	}
}

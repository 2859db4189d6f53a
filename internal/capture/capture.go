// Package capture grabs a burst of front-camera frames through ffmpeg.
package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/andresmejia3/maskwatch/internal/utils"
)

const megabyte = 1024 * 1024

// ErrNoFrames is returned when the device produced no complete JPEG.
var ErrNoFrames = errors.New("camera produced no frames")

// Capturer grabs TotalCapture frames per burst and keeps the last TotalProcessed.
type Capturer struct {
	Format         string
	Device         string
	TotalCapture   int
	TotalProcessed int

	// newCmd is swapped out in tests.
	newCmd func(ctx context.Context, format, device string, frames int) *exec.Cmd
}

// New clamps the counts so that 1 <= totalProcessed <= totalCapture.
func New(format, device string, totalCapture, totalProcessed int) *Capturer {
	totalCapture = max(totalCapture, 1)
	totalProcessed = min(max(totalProcessed, 1), totalCapture)
	return &Capturer{
		Format:         format,
		Device:         device,
		TotalCapture:   totalCapture,
		TotalProcessed: totalProcessed,
		newCmd:         utils.NewFFmpegCaptureCmd,
	}
}

// Capture runs one burst and returns the aggregation window, oldest first.
func (c *Capturer) Capture(ctx context.Context) ([][]byte, error) {
	ffmpeg := c.newCmd(ctx, c.Format, c.Device, c.TotalCapture)

	var stderrBuf bytes.Buffer
	ffmpeg.Stderr = &stderrBuf

	out, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	frames, scanErr := collect(out, c.TotalCapture, c.TotalProcessed)
	// Drain so ffmpeg never blocks on a full pipe once we stop reading.
	io.Copy(io.Discard, out)

	if err := ffmpeg.Wait(); err != nil {
		if stderrBuf.Len() > 0 {
			return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, bytes.TrimSpace(stderrBuf.Bytes()))
		}
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return frames, nil
}

// collect reads up to total JPEG frames from r and returns the last keep of them.
func collect(r io.Reader, total, keep int) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	keep = max(keep, 1)

	// Earlier frames are warm-up while exposure settles; only the trailing window is kept.
	window := make([][]byte, 0, keep)
	captured := 0
	for captured < total && scanner.Scan() {
		captured++
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		if len(window) == keep {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("frame scanner failed: %w", err)
	}

	if len(window) == 0 {
		return nil, ErrNoFrames
	}
	return window, nil
}

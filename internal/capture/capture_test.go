package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
)

func jpeg(id byte) []byte {
	return []byte{0xFF, 0xD8, id, id, 0xFF, 0xD9}
}

func stream(n int) []byte {
	var b bytes.Buffer
	for i := 1; i <= n; i++ {
		b.Write(jpeg(byte(i)))
	}
	return b.Bytes()
}

func TestCollect_KeepsTrailingWindow(t *testing.T) {
	frames, err := collect(bytes.NewReader(stream(7)), 7, 2)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], jpeg(6)) || !bytes.Equal(frames[1], jpeg(7)) {
		t.Errorf("Expected frames 6 and 7, got %X", frames)
	}
}

func TestCollect_StopsAtTotal(t *testing.T) {
	frames, err := collect(bytes.NewReader(stream(10)), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frames[1], jpeg(3)) {
		t.Errorf("Expected to stop after frame 3, last frame is %X", frames[1])
	}
}

func TestCollect_ShortBurst(t *testing.T) {
	frames, err := collect(bytes.NewReader(stream(1)), 7, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 || !bytes.Equal(frames[0], jpeg(1)) {
		t.Errorf("Expected the single frame, got %X", frames)
	}
}

func TestCollect_ZeroKeep(t *testing.T) {
	frames, err := collect(bytes.NewReader(stream(3)), 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 || !bytes.Equal(frames[0], jpeg(3)) {
		t.Errorf("Expected only the last frame, got %X", frames)
	}
}

func TestNew_ClampsCounts(t *testing.T) {
	tests := []struct {
		name                string
		total, processed    int
		wantTotal, wantKeep int
	}{
		{"Zero processed", 7, 0, 7, 1},
		{"Processed above total", 2, 5, 2, 2},
		{"Zero total", 0, 0, 1, 1},
		{"Unchanged", 7, 2, 7, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("v4l2", "/dev/video0", tt.total, tt.processed)
			if c.TotalCapture != tt.wantTotal || c.TotalProcessed != tt.wantKeep {
				t.Errorf("New(%d, %d) = (%d, %d), want (%d, %d)",
					tt.total, tt.processed, c.TotalCapture, c.TotalProcessed, tt.wantTotal, tt.wantKeep)
			}
		})
	}
}

func TestCollect_NoFrames(t *testing.T) {
	_, err := collect(bytes.NewReader([]byte{0x00, 0x01, 0x02}), 7, 2)
	if !errors.Is(err, ErrNoFrames) {
		t.Errorf("Expected ErrNoFrames, got %v", err)
	}
}

func TestCapture_UsesCommandOutput(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	path := t.TempDir() + "/burst.mjpeg"
	if err := os.WriteFile(path, stream(4), 0644); err != nil {
		t.Fatal(err)
	}

	c := New("", path, 4, 2)
	c.newCmd = func(ctx context.Context, format, device string, frames int) *exec.Cmd {
		return exec.CommandContext(ctx, "cat", device)
	}

	frames, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(frames) != 2 || !bytes.Equal(frames[1], jpeg(4)) {
		t.Errorf("Unexpected window %X", frames)
	}
}

func TestCapture_CommandFailure(t *testing.T) {
	c := New("", "/nonexistent/device", 4, 2)
	c.newCmd = func(ctx context.Context, format, device string, frames int) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo 'no such device' >&2; exit 1")
	}

	if _, err := c.Capture(context.Background()); err == nil {
		t.Error("Expected error from failing ffmpeg")
	}
}

package screen

import (
	"context"
	"testing"
)

func TestStatic(t *testing.T) {
	on, _ := Static(true).Interactive(context.Background())
	off, _ := Static(false).Interactive(context.Background())
	if !on || off {
		t.Errorf("Static probe returned %v/%v", on, off)
	}
}

func TestManual(t *testing.T) {
	m := NewManual(true)
	if on, _ := m.Interactive(context.Background()); !on {
		t.Error("Expected initial value true")
	}
	m.Set(false)
	if on, _ := m.Interactive(context.Background()); on {
		t.Error("Expected false after Set(false)")
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    bool
		wantErr bool
	}{
		{"Exit zero is interactive", []string{"sh", "-c", "exit 0"}, true, false},
		{"Non-zero exit is off", []string{"sh", "-c", "exit 3"}, false, false},
		{"Missing binary is an error", []string{"/definitely/not/a/probe"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCommand(tt.argv)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Interactive(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Interactive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Interactive() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NewCommand(nil); err == nil {
		t.Error("Expected error for empty command")
	}
}

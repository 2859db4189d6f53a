package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andresmejia3/maskwatch/internal/geo"
)

// TestStoreIntegration runs a full integration test against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("maskwatch_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// --- Zones ---

	home := geo.Location{Latitude: -6.2, Longitude: 106.8}
	office := geo.Location{Latitude: -6.21, Longitude: 106.82}
	if err := s.SaveZone(ctx, "home", home); err != nil {
		t.Fatalf("SaveZone failed: %v", err)
	}
	if err := s.SaveZone(ctx, "office", office); err != nil {
		t.Fatalf("SaveZone failed: %v", err)
	}

	// Saving again moves the zone instead of duplicating it.
	moved := geo.Location{Latitude: -6.3, Longitude: 106.9}
	if err := s.SaveZone(ctx, "home", moved); err != nil {
		t.Fatalf("SaveZone (update) failed: %v", err)
	}

	zones, err := s.ListZones(ctx)
	if err != nil {
		t.Fatalf("ListZones failed: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("Expected 2 zones, got %d", len(zones))
	}
	for _, z := range zones {
		if z.Name == "home" && z.Location() != moved {
			t.Errorf("Expected home to be moved to %v, got %v", moved, z.Location())
		}
	}

	if err := s.DeleteZone(ctx, "office"); err != nil {
		t.Fatalf("DeleteZone failed: %v", err)
	}
	if err := s.DeleteZone(ctx, "office"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("Expected ErrZoneNotFound, got %v", err)
	}

	if err := s.ClearZones(ctx); err != nil {
		t.Fatalf("ClearZones failed: %v", err)
	}
	if zones, _ := s.ListZones(ctx); len(zones) != 0 {
		t.Errorf("Expected no zones after clear, got %d", len(zones))
	}

	// --- Results ---

	img := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}
	firstID, err := s.InsertResult(ctx, ResultRecord{
		RoundID: "r1", Class: "with-mask", FaceCount: 1,
		MeanConfidence: 0.9, MinConfidence: 0.85, MaxConfidence: 0.95,
		SampleCount: 2, ElapsedMs: 1200, Passed: true, Image: img,
	})
	if err != nil {
		t.Fatalf("InsertResult failed: %v", err)
	}
	if _, err := s.InsertResult(ctx, ResultRecord{
		RoundID: "r2", Class: "not-found", MinConfidence: 1.0, MaxConfidence: 0.0, SampleCount: 2,
	}); err != nil {
		t.Fatalf("InsertResult failed: %v", err)
	}

	latest, err := s.ListResults(ctx, 1)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(latest) != 1 || latest[0].RoundID != "r2" {
		t.Errorf("Expected newest result r2, got %+v", latest)
	}

	all, err := s.ListResults(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 results, got %d", len(all))
	}

	got, err := s.ResultImage(ctx, firstID)
	if err != nil {
		t.Fatalf("ResultImage failed: %v", err)
	}
	if !bytes.Equal(got, img) {
		t.Errorf("Image round trip mismatch: %X", got)
	}

	// --- Reset ---

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := s.ListZones(ctx); err == nil {
		t.Error("Expected ListZones to fail after tables were dropped")
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}

package geo

import (
	"errors"
	"testing"
)

var (
	home      = Location{-6.2, 106.8}
	nearHome  = Location{-6.2004, 106.8} // ~44m away
	farAway   = Location{-6.3, 106.9}
	slightHop = Location{-6.20005, 106.8} // ~5.5m from home
)

func TestTracker_AddAtCurrentLocationIsSafe(t *testing.T) {
	tr := NewTracker(50, 20)

	if err := tr.Add("home", home, true); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !tr.IsSafe() {
		t.Error("Expected tracker to be safe right after marking the current location")
	}
	zones := tr.Zones()
	if len(zones) != 1 || !zones[0].IsSafe || zones[0].Distance != 0 {
		t.Errorf("Unexpected zone state: %+v", zones)
	}
}

func TestTracker_UpdateRecomputesEveryZone(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("home", home, false)
	tr.Add("far", farAway, false)

	if _, err := tr.Update(nearHome); err != nil {
		t.Fatal(err)
	}
	if !tr.IsSafe() {
		t.Fatal("Expected safe near home")
	}

	if _, err := tr.Update(farAway); err != nil {
		t.Fatal(err)
	}
	zones := tr.Zones()
	if zones[0].IsSafe {
		t.Error("Zone 'home' must be recomputed to unsafe once we leave it")
	}
	if !zones[1].IsSafe {
		t.Error("Zone 'far' should be safe at its own center")
	}

	if _, err := tr.Update(Location{10, 10}); err != nil {
		t.Fatal(err)
	}
	if tr.IsSafe() {
		t.Error("Expected unsafe outside every zone")
	}
}

func TestTracker_SmallDisplacementIgnored(t *testing.T) {
	tr := NewTracker(50, 20)
	tr.Add("home", farAway, false)

	if ok, _ := tr.Update(home); !ok {
		t.Fatal("First location must always be accepted")
	}
	if ok, _ := tr.Update(slightHop); ok {
		t.Error("Expected a 5m hop to be ignored with a 20m minimum displacement")
	}
	last, _ := tr.LastLocation()
	if last != home {
		t.Errorf("Ignored update must not move the last location, got %v", last)
	}
	if ok, _ := tr.Update(nearHome); !ok {
		t.Error("Expected a 44m move to be accepted")
	}
}

func TestTracker_DuplicateAndMissing(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("home", home, false)

	if err := tr.Add("home", farAway, false); !errors.Is(err, ErrZoneExists) {
		t.Errorf("Expected ErrZoneExists, got %v", err)
	}
	if err := tr.Remove("office"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("Expected ErrZoneNotFound, got %v", err)
	}
	if err := tr.Add("  ", home, false); err == nil {
		t.Error("Expected blank name to be rejected")
	}
	if err := tr.Add("bad", Location{100, 0}, false); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("Expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestTracker_RemoveLastZoneResets(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("home", home, true)

	if err := tr.Remove("home"); err != nil {
		t.Fatal(err)
	}
	if tr.IsSafe() {
		t.Error("Expected unsafe after removing the only zone")
	}
	if _, err := tr.LastLocation(); !errors.Is(err, ErrNoLocation) {
		t.Errorf("Expected last location to be forgotten, got %v", err)
	}
}

func TestTracker_RemoveReevaluates(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("far", farAway, false)
	tr.Add("home", home, true)

	if err := tr.Remove("home"); err != nil {
		t.Fatal(err)
	}
	if tr.IsSafe() {
		t.Error("Expected unsafe once the zone we stand in is removed")
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("home", home, true)
	tr.Add("far", farAway, false)

	tr.Clear()
	if len(tr.Zones()) != 0 || tr.IsSafe() {
		t.Errorf("Expected empty, unsafe tracker after Clear, got %d zones safe=%v", len(tr.Zones()), tr.IsSafe())
	}
}

func TestTracker_ZonesIsACopy(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("home", home, true)

	zones := tr.Zones()
	zones[0].Name = "mutated"
	if tr.Zones()[0].Name != "home" {
		t.Error("Zones() must not expose internal state")
	}
}

func TestTracker_RestoreUndoesAddAtCurrentLocation(t *testing.T) {
	tr := NewTracker(50, 0)
	tr.Add("far", farAway, false)
	tr.Update(farAway)
	snap := tr.Snapshot()

	if err := tr.Add("home", home, true); err != nil {
		t.Fatal(err)
	}
	if loc, _ := tr.LastLocation(); loc != home {
		t.Fatalf("Expected current location to move home, got %v", loc)
	}

	tr.Restore(snap)
	zones := tr.Zones()
	if len(zones) != 1 || zones[0].Name != "far" || !zones[0].IsSafe {
		t.Errorf("Expected only the original zone back, got %+v", zones)
	}
	if loc, err := tr.LastLocation(); err != nil || loc != farAway {
		t.Errorf("Expected last location restored to %v, got %v (%v)", farAway, loc, err)
	}
	if !tr.IsSafe() {
		t.Error("Expected safe flag restored")
	}
}

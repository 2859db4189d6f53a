package geo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrZoneExists   = errors.New("zone already exists")
	ErrZoneNotFound = errors.New("zone not found")
	ErrNoLocation   = errors.New("no location known yet")
)

// Tracker owns the set of safe zones and the last accepted location.
// It is not safe for concurrent use; the monitor serializes every call.
type Tracker struct {
	radius          int
	minDisplacement float64

	zones []Zone
	last  *Location
	safe  bool
}

// NewTracker creates a tracker that treats a zone as safe within radius meters.
// Location updates closer than minDisplacement meters to the last accepted one are dropped.
func NewTracker(radius int, minDisplacement float64) *Tracker {
	return &Tracker{radius: radius, minDisplacement: minDisplacement}
}

// Radius returns the safe-zone radius in meters.
func (t *Tracker) Radius() int { return t.radius }

// Add registers a new zone. When current is true the zone location is also
// taken as the device's current position and every zone is re-evaluated.
func (t *Tracker) Add(name string, loc Location, current bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("zone name is required")
	}
	if err := loc.Validate(); err != nil {
		return err
	}
	if t.index(name) != -1 {
		return fmt.Errorf("%w: %s", ErrZoneExists, name)
	}

	t.zones = append(t.zones, Zone{Name: name, Latitude: loc.Latitude, Longitude: loc.Longitude})

	if current {
		return t.apply(loc)
	}
	if t.last != nil {
		return t.apply(*t.last)
	}
	return nil
}

// Remove deletes the named zone. Removing the last zone resets the tracker.
func (t *Tracker) Remove(name string) error {
	i := t.index(name)
	if i == -1 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, name)
	}
	t.zones = append(t.zones[:i], t.zones[i+1:]...)

	if len(t.zones) == 0 {
		t.reset()
		return nil
	}
	if t.last != nil {
		return t.apply(*t.last)
	}
	return nil
}

// Clear drops every zone and forgets the last location.
func (t *Tracker) Clear() {
	t.zones = nil
	t.reset()
}

// Update feeds a new device location. It reports whether the update was
// accepted; updates within the minimum displacement of the last accepted
// location are ignored and leave the zone state untouched.
func (t *Tracker) Update(loc Location) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	if t.last != nil && t.minDisplacement > 0 && Distance(*t.last, loc) < t.minDisplacement {
		return false, nil
	}
	return true, t.apply(loc)
}

// IsSafe reports whether any zone contained the last accepted location.
func (t *Tracker) IsSafe() bool { return t.safe }

// Zones returns a copy of the current zone set.
func (t *Tracker) Zones() []Zone {
	out := make([]Zone, len(t.zones))
	copy(out, t.zones)
	return out
}

// LastLocation returns the last accepted location.
func (t *Tracker) LastLocation() (Location, error) {
	if t.last == nil {
		return Location{}, ErrNoLocation
	}
	return *t.last, nil
}

func (t *Tracker) apply(loc Location) error {
	safe := false
	for i := range t.zones {
		ev, err := Evaluate(loc, t.zones[i], t.radius)
		if err != nil {
			return err
		}
		t.zones[i].Distance = ev.DistanceMeters
		t.zones[i].IsSafe = ev.IsSafe
		if ev.IsSafe {
			safe = true
		}
	}

	l := loc
	t.last = &l
	t.safe = safe
	return nil
}

// Snapshot is a copy of the tracker state, taken so a caller can undo a change.
type Snapshot struct {
	zones []Zone
	last  *Location
	safe  bool
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{zones: t.Zones(), safe: t.safe}
	if t.last != nil {
		l := *t.last
		s.last = &l
	}
	return s
}

// Restore puts the tracker back to the state captured by s.
func (t *Tracker) Restore(s Snapshot) {
	t.zones = s.zones
	t.last = s.last
	t.safe = s.safe
}

func (t *Tracker) reset() {
	t.last = nil
	t.safe = false
}

func (t *Tracker) index(name string) int {
	for i, z := range t.zones {
		if z.Name == name {
			return i
		}
	}
	return -1
}

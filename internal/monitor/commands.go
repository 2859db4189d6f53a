package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/notify"
	"github.com/andresmejia3/maskwatch/internal/store"
)

// LoadZones seeds the tracker from the store. Call it after Run has started.
func (m *Monitor) LoadZones(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	zones, err := m.store.ListZones(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zones: %w", err)
	}

	var addErr error
	if err := m.do(ctx, func(t *geo.Tracker) {
		for _, z := range zones {
			if err := t.Add(z.Name, z.Location(), false); err != nil {
				addErr = errors.Join(addErr, err)
			}
		}
	}); err != nil {
		return err
	}
	log.Info(log.Fields{"zones": len(zones)}, "[monitor.LoadZones] zones restored")
	return addErr
}

// AddZone registers a safe zone. With current set, loc is also taken as the
// device's position. A pending reminder is cancelled once the zone is in place.
func (m *Monitor) AddZone(ctx context.Context, name string, loc geo.Location, current bool) error {
	name = strings.TrimSpace(name)

	var (
		snap   geo.Snapshot
		addErr error
	)
	if err := m.do(ctx, func(t *geo.Tracker) {
		snap = t.Snapshot()
		addErr = t.Add(name, loc, current)
	}); err != nil {
		return err
	}
	if addErr != nil {
		return addErr
	}

	if m.store != nil {
		if err := m.store.SaveZone(ctx, name, loc); err != nil {
			// Keep memory and database in step.
			_ = m.do(ctx, func(t *geo.Tracker) { t.Restore(snap) })
			return fmt.Errorf("failed to persist zone %s: %w", name, err)
		}
	}
	log.Info(log.Fields{"zone": name, "current": current}, "[monitor.AddZone] zone added")

	if err := m.publisher.CancelReminder(ctx); err != nil {
		log.Error(log.Fields{"zone": name, "error": err.Error()}, "[monitor.AddZone] failed to cancel reminder")
	}
	return nil
}

func (m *Monitor) RemoveZone(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	var rmErr error
	if err := m.do(ctx, func(t *geo.Tracker) { rmErr = t.Remove(name) }); err != nil {
		return err
	}
	if rmErr != nil {
		return rmErr
	}
	if m.store != nil {
		err := m.store.DeleteZone(ctx, name)
		switch {
		case errors.Is(err, store.ErrZoneNotFound):
			// The tracker held it, so the row was already gone.
			log.Warn(log.Fields{"zone": name}, "[monitor.RemoveZone] zone missing from store")
		case err != nil:
			return fmt.Errorf("failed to delete zone %s: %w", name, err)
		}
	}
	log.Info(log.Fields{"zone": name}, "[monitor.RemoveZone] zone removed")
	return nil
}

// ClearZones drops every zone and forgets the last location.
func (m *Monitor) ClearZones(ctx context.Context) error {
	if err := m.do(ctx, func(t *geo.Tracker) { t.Clear() }); err != nil {
		return err
	}
	if m.store != nil {
		if err := m.store.ClearZones(ctx); err != nil {
			return fmt.Errorf("failed to clear zones: %w", err)
		}
	}
	return nil
}

func (m *Monitor) Zones(ctx context.Context) ([]geo.Zone, error) {
	var zones []geo.Zone
	err := m.do(ctx, func(t *geo.Tracker) { zones = t.Zones() })
	return zones, err
}

// UpdateLocation feeds a location fix. It reports whether the fix moved far
// enough to be accepted; accepted fixes are published.
func (m *Monitor) UpdateLocation(ctx context.Context, loc geo.Location) (bool, error) {
	var (
		accepted bool
		updErr   error
		ev       notify.LocationEvent
	)
	err := m.do(ctx, func(t *geo.Tracker) {
		accepted, updErr = t.Update(loc)
		if accepted && updErr == nil {
			ev = notify.LocationEvent{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				IsSafe:    t.IsSafe(),
				Zones:     t.Zones(),
				At:        m.opts.Now(),
			}
		}
	})
	if err != nil {
		return false, err
	}
	if updErr != nil || !accepted {
		return false, updErr
	}

	if err := m.publisher.PublishLocation(ctx, ev); err != nil {
		log.Error(log.Fields{"error": err.Error()}, "[monitor.UpdateLocation] failed to publish location")
	}
	return true, nil
}

// Status snapshots the tracker and evaluates the gate as of now.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	var st Status
	err := m.do(ctx, func(t *geo.Tracker) {
		st.IsSafe = t.IsSafe()
		st.Zones = t.Zones()
		st.Radius = t.Radius()
		if loc, err := t.LastLocation(); err == nil {
			st.Location = &loc
		}
	})
	if err != nil {
		return Status{}, err
	}
	st.Decision = m.decide(ctx, st.IsSafe)
	return st, nil
}

// Package geo decides whether the device sits inside one of the user's safe zones.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// ErrInvalidCoordinate is returned for a latitude outside [-90, 90] or a longitude outside [-180, 180].
var ErrInvalidCoordinate = errors.New("invalid coordinate")

var validate = validator.New()

// Location is a WGS 84 position reported by the host location service.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"longitude"`
}

// Zone is a named point the user marked as safe.
// Distance and IsSafe are recomputed on every location update.
type Zone struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  int     `json:"distance"`
	IsSafe    bool    `json:"is_safe"`
}

// Location returns the zone's center.
func (z Zone) Location() Location {
	return Location{Latitude: z.Latitude, Longitude: z.Longitude}
}

// Evaluation is the outcome of measuring one zone against the current location.
type Evaluation struct {
	DistanceMeters int  `json:"distance_meters"`
	IsSafe         bool `json:"is_safe"`
}

// Validate checks that both coordinates are in range.
func (l Location) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, l.Latitude, l.Longitude)
	}
	return nil
}

// Distance returns the great-circle distance between a and b in meters (haversine).
func Distance(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, h)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// Evaluate measures zone against current. The zone is safe when the
// truncated distance is at most radius meters.
func Evaluate(current Location, zone Zone, radius int) (Evaluation, error) {
	if err := current.Validate(); err != nil {
		return Evaluation{}, err
	}
	if err := zone.Location().Validate(); err != nil {
		return Evaluation{}, err
	}

	d := int(Distance(current, zone.Location()))
	return Evaluation{DistanceMeters: d, IsSafe: d <= radius}, nil
}

// Package geofence decides whether a submission was made close enough to the
// configured workplace.
package geofence

import (
	"fmt"
	"math"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Messages returned by Validate when no distance is involved
const (
	MessageDisabled    = "Location validation disabled"
	MessageNotProvided = "Location data not provided"
)

// Policy is the geofence configuration
type Policy struct {
	Enabled      bool    `json:"enabled"`
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
	RadiusMeters float64 `json:"radius" validate:"gte=0"`
	LocationName string  `json:"location_name" validate:"required"`
}

// DefaultPolicy returns the policy used until an administrator saves one
func DefaultPolicy(d config.GeofenceDefaults) Policy {
	return Policy(d)
}

// FromStored converts a persisted policy
func FromStored(p database.LocationPolicy) Policy {
	return Policy(p)
}

// Stored converts the policy to its persisted form
func (p Policy) Stored() database.LocationPolicy {
	return database.LocationPolicy(p)
}

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return constants.EarthRadiusMeters * c
}

// ValidCoordinate reports whether lat and lon are finite decimal degrees
// within [-90, 90] and [-180, 180].
func ValidCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Validate checks a submission's coordinates against the policy and returns
// whether it is accepted together with a human-readable reason. Coordinates
// outside the valid range count as not provided.
func Validate(policy Policy, lat, lon *float64) (bool, string) {
	if !policy.Enabled {
		return true, MessageDisabled
	}
	if lat == nil || lon == nil || !ValidCoordinate(*lat, *lon) {
		return false, MessageNotProvided
	}

	d := Distance(policy.Latitude, policy.Longitude, *lat, *lon)
	if d <= policy.RadiusMeters {
		return true, fmt.Sprintf("Location valid (%.0fm from %s)", d, policy.LocationName)
	}
	return false, fmt.Sprintf("Location invalid. You are %.0fm from %s (max: %.0fm)", d, policy.LocationName, policy.RadiusMeters)
}

// TestResult is the outcome of checking a point against the policy center,
// regardless of whether the policy is enabled.
type TestResult struct {
	Valid     bool    `json:"valid"`
	Distance  float64 `json:"distance"`
	MaxRadius float64 `json:"max_radius"`
	Message   string  `json:"message"`
}

// Test measures a point against the policy without consulting Enabled.
// The distance is rounded to centimeters.
func Test(policy Policy, lat, lon float64) TestResult {
	d := Distance(policy.Latitude, policy.Longitude, lat, lon)
	valid := d <= policy.RadiusMeters

	verdict := "Invalid"
	if valid {
		verdict = "Valid"
	}

	return TestResult{
		Valid:     valid,
		Distance:  math.Round(d*100) / 100,
		MaxRadius: policy.RadiusMeters,
		Message:   fmt.Sprintf("Distance: %.0fm from %s (%s)", d, policy.LocationName, verdict),
	}
}

// Package geo holds the pure distance/bearing/staleness math the rest of
// the engine is built on. Everything here is deterministic given inputs.
package geo

import (
	"math"
	"time"

	"hither-backend/internal/models"
)

const earthRadiusMeters = 6371000.0

// Staleness thresholds. LiveWindow and OnlineWindow intentionally differ:
// "live" drives the per-member indicator, "online" drives the dashboard
// member count.
const (
	LiveWindow   = 60 * time.Second
	OfflineAfter = 5 * time.Minute
	OnlineWindow = 5 * time.Minute
)

// Staleness classifies how recently a member's location was reported
type Staleness string

const (
	StalenessLive    Staleness = "live"
	StalenessStale   Staleness = "stale"
	StalenessOffline Staleness = "offline"
	StalenessUnknown Staleness = "unknown"
)

// DistanceMeters returns the great-circle (haversine) distance between two
// points in meters. Symmetric; 0 for identical points.
func DistanceMeters(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	deltaLat := (b.Latitude - a.Latitude) * math.Pi / 180
	deltaLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// BearingDegrees returns the initial bearing from one point to another in
// [0, 360). Returns 0 when the points coincide.
func BearingDegrees(from, to models.GeoPoint) float64 {
	if from == to {
		return 0
	}

	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	deltaLon := (to.Longitude - from.Longitude) * math.Pi / 180

	y := math.Sin(deltaLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// ClassifyStaleness buckets a last-update timestamp relative to now.
// Absent timestamps are a distinct "unknown" case, never defaulted to live.
func ClassifyStaleness(lastUpdate *time.Time, now time.Time) Staleness {
	if lastUpdate == nil {
		return StalenessUnknown
	}
	age := now.Sub(*lastUpdate)
	switch {
	case age < LiveWindow:
		return StalenessLive
	case age < OfflineAfter:
		return StalenessStale
	default:
		return StalenessOffline
	}
}

// ClassifyStalenessUnix is ClassifyStaleness over the Unix-epoch fields the
// aggregates store.
func ClassifyStalenessUnix(lastUpdate *int64, now time.Time) Staleness {
	if lastUpdate == nil {
		return StalenessUnknown
	}
	t := time.Unix(*lastUpdate, 0)
	return ClassifyStaleness(&t, now)
}

// ProgressPercentage maps a total/remaining distance pair to [0, 100].
// A non-positive total yields 0.
func ProgressPercentage(total, remaining float64) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * (total - remaining) / total
	return math.Min(100, math.Max(0, p))
}

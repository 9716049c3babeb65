package geo

import (
	"math"
	"testing"
	"time"

	"hither-backend/internal/models"
)

func TestDistanceMeters(t *testing.T) {
	sf := models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}
	nearby := models.GeoPoint{Latitude: 37.7849, Longitude: -122.4094}

	t.Run("identical points are zero", func(t *testing.T) {
		if d := DistanceMeters(sf, sf); d != 0 {
			t.Errorf("DistanceMeters(p, p) = %v, want 0", d)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := DistanceMeters(sf, nearby)
		ba := DistanceMeters(nearby, sf)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("DistanceMeters not symmetric: %v vs %v", ab, ba)
		}
	})

	t.Run("regression fixture downtown SF", func(t *testing.T) {
		// ~1451 m between these two points, allow 5%
		d := DistanceMeters(sf, nearby)
		if d < 1451*0.95 || d > 1451*1.05 {
			t.Errorf("DistanceMeters = %v, want ~1451 (±5%%)", d)
		}
	})
}

func TestBearingDegrees(t *testing.T) {
	origin := models.GeoPoint{Latitude: 0, Longitude: 0}

	tests := []struct {
		name string
		from models.GeoPoint
		to   models.GeoPoint
		want float64
	}{
		{"identical points", origin, origin, 0},
		{"due north", origin, models.GeoPoint{Latitude: 1, Longitude: 0}, 0},
		{"due east", origin, models.GeoPoint{Latitude: 0, Longitude: 1}, 90},
		{"due south", origin, models.GeoPoint{Latitude: -1, Longitude: 0}, 180},
		{"due west", origin, models.GeoPoint{Latitude: 0, Longitude: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDegrees(tt.from, tt.to)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("BearingDegrees = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Errorf("BearingDegrees = %v, outside [0, 360)", got)
			}
		})
	}
}

func TestClassifyStaleness(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	tests := []struct {
		name       string
		lastUpdate *time.Time
		want       Staleness
	}{
		{"absent is unknown", nil, StalenessUnknown},
		{"just now is live", ago(0), StalenessLive},
		{"59s is live", ago(59 * time.Second), StalenessLive},
		{"60s is stale", ago(60 * time.Second), StalenessStale},
		{"4m59s is stale", ago(4*time.Minute + 59*time.Second), StalenessStale},
		{"5m is offline", ago(5 * time.Minute), StalenessOffline},
		{"an hour is offline", ago(time.Hour), StalenessOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStaleness(tt.lastUpdate, now); got != tt.want {
				t.Errorf("ClassifyStaleness = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyStalenessUnix(t *testing.T) {
	now := time.Unix(1_750_000_000, 0)
	ts := now.Add(-30 * time.Second).Unix()

	if got := ClassifyStalenessUnix(nil, now); got != StalenessUnknown {
		t.Errorf("nil timestamp = %v, want unknown", got)
	}
	if got := ClassifyStalenessUnix(&ts, now); got != StalenessLive {
		t.Errorf("30s old timestamp = %v, want live", got)
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name             string
		total, remaining float64
		want             float64
	}{
		{"zero total", 0, 100, 0},
		{"negative total", -5, 0, 0},
		{"halfway", 1000, 500, 50},
		{"arrived", 1000, 0, 100},
		{"overshoot clamps to 100", 1000, -50, 100},
		{"further than start clamps to 0", 1000, 1500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressPercentage(tt.total, tt.remaining); got != tt.want {
				t.Errorf("ProgressPercentage(%v, %v) = %v, want %v", tt.total, tt.remaining, got, tt.want)
			}
		})
	}
}

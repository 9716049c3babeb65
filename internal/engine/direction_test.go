package engine

import (
	"math"
	"testing"

	"hither-backend/internal/models"
)

func TestBearingToLeader(t *testing.T) {
	g := mustCreateGroup(t)
	g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)

	t.Run("unknown locations give no bearing", func(t *testing.T) {
		if _, ok := BearingToLeader(g, "user-f1"); ok {
			t.Error("expected no bearing before any location reports")
		}
	})

	g, _ = UpdateLocation(g, "user-leader", models.GeoPoint{Latitude: 1, Longitude: 0}, testNow)

	t.Run("follower location still unknown", func(t *testing.T) {
		if _, ok := BearingToLeader(g, "user-f1"); ok {
			t.Error("expected no bearing while follower location is unknown")
		}
	})

	g, _ = UpdateLocation(g, "user-f1", models.GeoPoint{Latitude: 0, Longitude: 0}, testNow)

	t.Run("leader due north of follower", func(t *testing.T) {
		bearing, ok := BearingToLeader(g, "user-f1")
		if !ok {
			t.Fatal("expected a bearing")
		}
		if math.Abs(bearing) > 0.01 {
			t.Errorf("bearing = %v, want ~0 (due north)", bearing)
		}
	})

	t.Run("unknown follower", func(t *testing.T) {
		if _, ok := BearingToLeader(g, "user-ghost"); ok {
			t.Error("expected no bearing for non-member")
		}
	})
}

func TestDistanceAndDescription(t *testing.T) {
	a := models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}
	b := models.GeoPoint{Latitude: 37.7849, Longitude: -122.4094}

	meters, text := DistanceAndDescription(a, b)
	if meters < 1000 {
		t.Fatalf("fixture distance = %v, expected > 1 km", meters)
	}
	if text != "1.5 km" {
		t.Errorf("description = %q, want %q", text, "1.5 km")
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{42.4, "42 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{1451, "1.5 km"},
		{12345, "12.3 km"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}

func TestRouteProgress(t *testing.T) {
	if got := RouteProgress(2000, 500); got != 75 {
		t.Errorf("RouteProgress = %v, want 75", got)
	}
	if got := RouteProgress(0, 500); got != 0 {
		t.Errorf("RouteProgress with zero total = %v, want 0", got)
	}
}

package engine

import (
	"errors"
	"testing"
	"time"

	"hither-backend/internal/models"
)

func TestUpdateLocation(t *testing.T) {
	g := mustCreateGroup(t)
	point := models.GeoPoint{Latitude: 35.0116, Longitude: 135.7681}

	t.Run("first sample is stored", func(t *testing.T) {
		updated, err := UpdateLocation(g, "user-leader", point, testNow)
		if err != nil {
			t.Fatalf("UpdateLocation failed: %v", err)
		}
		m := updated.FindMember("user-leader")
		if loc := m.Location(); loc == nil || *loc != point {
			t.Errorf("location = %v, want %v", loc, point)
		}
		if m.LastLocationUpdate == nil || *m.LastLocationUpdate != testNow.Unix() {
			t.Error("lastLocationUpdate not set")
		}
	})

	t.Run("out of range rejected", func(t *testing.T) {
		bad := models.GeoPoint{Latitude: 95, Longitude: 0}
		if _, err := UpdateLocation(g, "user-leader", bad, testNow); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("err = %v, want ErrOutOfRange", err)
		}
		bad = models.GeoPoint{Latitude: 0, Longitude: -181}
		if _, err := UpdateLocation(g, "user-leader", bad, testNow); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("err = %v, want ErrOutOfRange", err)
		}
	})

	t.Run("unknown member rejected", func(t *testing.T) {
		if _, err := UpdateLocation(g, "user-ghost", point, testNow); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("out of order delivery is a stale write no-op", func(t *testing.T) {
		updated, err := UpdateLocation(g, "user-leader", point, testNow)
		if err != nil {
			t.Fatalf("UpdateLocation failed: %v", err)
		}
		older := models.GeoPoint{Latitude: 34.9, Longitude: 135.7}
		after, err := UpdateLocation(updated, "user-leader", older, testNow.Add(-time.Minute))
		if !errors.Is(err, ErrStaleWrite) {
			t.Fatalf("err = %v, want ErrStaleWrite", err)
		}
		// aggregate is returned unchanged
		m := after.FindMember("user-leader")
		if loc := m.Location(); loc == nil || *loc != point {
			t.Error("stale write mutated the stored location")
		}
	})
}

func TestOnlineMemberCount(t *testing.T) {
	g := mustCreateGroup(t)
	g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
	g, _ = Join(g, g.InviteCode, "user-f2", "Cam", testNow)
	point := models.GeoPoint{Latitude: 35.0116, Longitude: 135.7681}

	// leader reported 30s ago, f1 reported 10 minutes ago, f2 never did
	g, _ = UpdateLocation(g, "user-leader", point, testNow.Add(-30*time.Second))
	g, _ = UpdateLocation(g, "user-f1", point, testNow.Add(-10*time.Minute))

	if got := OnlineMemberCount(g, testNow); got != 1 {
		t.Errorf("OnlineMemberCount = %d, want 1", got)
	}

	// a 3-minute-old report is stale for the live indicator but still online
	g, _ = UpdateLocation(g, "user-f2", point, testNow.Add(-3*time.Minute))
	if got := OnlineMemberCount(g, testNow); got != 2 {
		t.Errorf("OnlineMemberCount = %d, want 2", got)
	}
}

func TestMemberStaleness(t *testing.T) {
	g := mustCreateGroup(t)
	g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
	point := models.GeoPoint{Latitude: 35.0116, Longitude: 135.7681}
	g, _ = UpdateLocation(g, "user-leader", point, testNow.Add(-10*time.Second))

	statuses := MemberStaleness(g, testNow)
	byUser := make(map[string]string)
	for _, s := range statuses {
		byUser[s.UserID] = s.Staleness
	}
	if byUser["user-leader"] != "live" {
		t.Errorf("leader staleness = %q, want live", byUser["user-leader"])
	}
	if byUser["user-f1"] != "unknown" {
		t.Errorf("member without location = %q, want unknown", byUser["user-f1"])
	}
}

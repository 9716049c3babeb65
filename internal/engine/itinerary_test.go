package engine

import (
	"errors"
	"testing"
	"time"

	"hither-backend/internal/models"
)

func itineraryFixture(t *testing.T) (models.Group, models.GroupItinerary) {
	t.Helper()
	g := mustCreateGroup(t)
	g, err := Join(g, g.InviteCode, "user-f1", "Ben", testNow)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	return g, NewItinerary(g.ID, testNow)
}

func addTestWaypoint(t *testing.T, g models.Group, it models.GroupItinerary, name, by string) (models.GroupItinerary, models.Waypoint) {
	t.Helper()
	it, wp, err := AddWaypoint(g, it, models.AddWaypointRequest{
		Name:      name,
		Type:      models.WaypointCheckpoint,
		Latitude:  35.0116,
		Longitude: 135.7681,
	}, by, testNow)
	if err != nil {
		t.Fatalf("AddWaypoint(%s) failed: %v", name, err)
	}
	return it, wp
}

func inProgressCount(it models.GroupItinerary) int {
	n := 0
	for _, w := range it.Waypoints {
		if w.IsInProgress {
			n++
		}
	}
	return n
}

func TestAddWaypoint(t *testing.T) {
	g, it := itineraryFixture(t)

	it, first := addTestWaypoint(t, g, it, "Station", "user-leader")
	if first.Order != 1 {
		t.Errorf("first waypoint order = %d, want 1", first.Order)
	}

	// any member may add, not just the leader
	it, second, err := AddWaypoint(g, it, models.AddWaypointRequest{
		Name:      "Tea House",
		Type:      models.WaypointRestStop,
		Latitude:  35.0030,
		Longitude: 135.7780,
	}, "user-f1", testNow)
	if err != nil {
		t.Fatalf("follower AddWaypoint failed: %v", err)
	}
	if second.Order != 2 {
		t.Errorf("second waypoint order = %d, want 2", second.Order)
	}
	if second.CreatedBy != "user-f1" {
		t.Errorf("createdBy = %q, want the acting member", second.CreatedBy)
	}

	t.Run("non-member rejected", func(t *testing.T) {
		_, _, err := AddWaypoint(g, it, models.AddWaypointRequest{Name: "x", Type: models.WaypointCustom, Latitude: 0, Longitude: 0}, "user-ghost", testNow)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("bad coordinates rejected", func(t *testing.T) {
		_, _, err := AddWaypoint(g, it, models.AddWaypointRequest{Name: "x", Type: models.WaypointCustom, Latitude: 91, Longitude: 0}, "user-leader", testNow)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("err = %v, want ErrOutOfRange", err)
		}
	})

	t.Run("explicit order collision rejected", func(t *testing.T) {
		dup := first.Order
		_, _, err := AddWaypoint(g, it, models.AddWaypointRequest{
			Name:      "Temple",
			Type:      models.WaypointCheckpoint,
			Latitude:  35.0395,
			Longitude: 135.7290,
			Order:     &dup,
		}, "user-leader", testNow)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("explicit order must be positive", func(t *testing.T) {
		zero := 0
		_, _, err := AddWaypoint(g, it, models.AddWaypointRequest{
			Name:      "Temple",
			Type:      models.WaypointCheckpoint,
			Latitude:  35.0395,
			Longitude: 135.7290,
			Order:     &zero,
		}, "user-leader", testNow)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("explicit order in a gap is accepted", func(t *testing.T) {
		free := 7
		next, wp, err := AddWaypoint(g, it, models.AddWaypointRequest{
			Name:      "Temple",
			Type:      models.WaypointCheckpoint,
			Latitude:  35.0395,
			Longitude: 135.7290,
			Order:     &free,
		}, "user-leader", testNow)
		if err != nil {
			t.Fatalf("AddWaypoint with free order failed: %v", err)
		}
		if wp.Order != free {
			t.Errorf("order = %d, want %d", wp.Order, free)
		}
		seen := make(map[int]string)
		for _, w := range next.ActiveWaypoints() {
			if other, ok := seen[w.Order]; ok {
				t.Errorf("active waypoints %q and %q share order %d", other, w.Name, w.Order)
			}
			seen[w.Order] = w.Name
		}
	})
}

func TestProgressStateMachine(t *testing.T) {
	g, it := itineraryFixture(t)
	it, first := addTestWaypoint(t, g, it, "Station", "user-leader")
	it, second := addTestWaypoint(t, g, it, "Temple", "user-leader")

	t.Run("follower cannot start", func(t *testing.T) {
		if _, err := StartProgress(g, it, first.ID, "user-f1", testNow); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	it, err := StartProgress(g, it, first.ID, "user-leader", testNow)
	if err != nil {
		t.Fatalf("StartProgress failed: %v", err)
	}
	if cur := it.CurrentWaypoint(); cur == nil || cur.ID != first.ID {
		t.Fatal("current waypoint not set")
	}

	t.Run("second start is rejected without stop", func(t *testing.T) {
		if _, err := StartProgress(g, it, second.ID, "user-leader", testNow); !errors.Is(err, ErrAlreadyInProgress) {
			t.Errorf("err = %v, want ErrAlreadyInProgress", err)
		}
	})

	t.Run("restarting the same waypoint is fine", func(t *testing.T) {
		again, err := StartProgress(g, it, first.ID, "user-leader", testNow)
		if err != nil {
			t.Fatalf("restart failed: %v", err)
		}
		if inProgressCount(again) != 1 {
			t.Errorf("in-progress count = %d, want 1", inProgressCount(again))
		}
	})

	t.Run("adding while in progress leaves progress untouched", func(t *testing.T) {
		next, wp := addTestWaypoint(t, g, it, "Garden", "user-leader")
		if wp.IsInProgress {
			t.Error("new waypoint should not be in progress")
		}
		if cur := next.CurrentWaypoint(); cur == nil || cur.ID != first.ID {
			t.Error("original waypoint no longer in progress")
		}
	})

	it, err = StopProgress(g, it, first.ID, "user-leader", testNow)
	if err != nil {
		t.Fatalf("StopProgress failed: %v", err)
	}
	if it.CurrentWaypoint() != nil {
		t.Error("current waypoint still set after stop")
	}

	it, err = StartProgress(g, it, second.ID, "user-leader", testNow)
	if err != nil {
		t.Fatalf("start after stop failed: %v", err)
	}
	it, err = MarkCompleted(g, it, second.ID, "user-leader", testNow)
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	wp := it.FindWaypoint(second.ID)
	if !wp.IsCompleted || wp.IsInProgress {
		t.Error("completed waypoint must not be in progress")
	}
	if inProgressCount(it) != 0 {
		t.Errorf("in-progress count = %d, want 0", inProgressCount(it))
	}

	t.Run("completed waypoint cannot restart", func(t *testing.T) {
		if _, err := StartProgress(g, it, second.ID, "user-leader", testNow); err == nil {
			t.Error("expected error starting a completed waypoint")
		}
	})
}

func TestSingleInProgressInvariant(t *testing.T) {
	g, it := itineraryFixture(t)
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		var wp models.Waypoint
		it, wp = addTestWaypoint(t, g, it, name, "user-leader")
		ids = append(ids, wp.ID)
	}

	// arbitrary start/stop/complete churn
	it, _ = StartProgress(g, it, ids[0], "user-leader", testNow)
	it, _ = StopProgress(g, it, ids[0], "user-leader", testNow)
	it, _ = StartProgress(g, it, ids[1], "user-leader", testNow)
	it, _ = MarkCompleted(g, it, ids[1], "user-leader", testNow)
	it, _ = StartProgress(g, it, ids[2], "user-leader", testNow)

	if inProgressCount(it) > 1 {
		t.Errorf("in-progress count = %d, want at most 1", inProgressCount(it))
	}
}

func TestRemoveWaypoint(t *testing.T) {
	g, it := itineraryFixture(t)
	it, first := addTestWaypoint(t, g, it, "A", "user-leader")
	it, second := addTestWaypoint(t, g, it, "B", "user-leader")
	it, third := addTestWaypoint(t, g, it, "C", "user-leader")

	it, err := RemoveWaypoint(g, it, second.ID, "user-leader", testNow)
	if err != nil {
		t.Fatalf("RemoveWaypoint failed: %v", err)
	}
	if it.FindWaypoint(second.ID).IsActive {
		t.Error("removed waypoint still active")
	}

	// siblings keep their order; the gap is acceptable
	if it.FindWaypoint(first.ID).Order != 1 || it.FindWaypoint(third.ID).Order != 3 {
		t.Error("sibling orders were renumbered")
	}

	t.Run("follower cannot remove", func(t *testing.T) {
		if _, err := RemoveWaypoint(g, it, first.ID, "user-f1", testNow); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("removing again is not found", func(t *testing.T) {
		if _, err := RemoveWaypoint(g, it, second.ID, "user-leader", testNow); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestReorder(t *testing.T) {
	g, it := itineraryFixture(t)
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		var wp models.Waypoint
		it, wp = addTestWaypoint(t, g, it, name, "user-leader")
		ids = append(ids, wp.ID)
	}

	target := []string{ids[2], ids[0], ids[1]}
	it, err := Reorder(g, it, target, "user-leader", testNow)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	for i, id := range target {
		if got := it.FindWaypoint(id).Order; got != i+1 {
			t.Errorf("waypoint %d order = %d, want %d", i, got, i+1)
		}
	}

	t.Run("idempotent", func(t *testing.T) {
		again, err := Reorder(g, it, target, "user-leader", testNow.Add(time.Minute))
		if err != nil {
			t.Fatalf("second Reorder failed: %v", err)
		}
		for _, id := range ids {
			if again.FindWaypoint(id).Order != it.FindWaypoint(id).Order {
				t.Error("reapplying the same ordering changed order values")
			}
		}
	})

	t.Run("unknown id is inconsistent", func(t *testing.T) {
		bad := []string{ids[0], ids[1], "wp-ghost"}
		if _, err := Reorder(g, it, bad, "user-leader", testNow); !errors.Is(err, ErrInconsistentReorder) {
			t.Errorf("err = %v, want ErrInconsistentReorder", err)
		}
	})

	t.Run("missing id is inconsistent", func(t *testing.T) {
		if _, err := Reorder(g, it, ids[:2], "user-leader", testNow); !errors.Is(err, ErrInconsistentReorder) {
			t.Errorf("err = %v, want ErrInconsistentReorder", err)
		}
	})

	t.Run("follower cannot reorder", func(t *testing.T) {
		if _, err := Reorder(g, it, target, "user-f1", testNow); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("in-progress waypoint pins at zero", func(t *testing.T) {
		started, err := StartProgress(g, it, ids[2], "user-leader", testNow)
		if err != nil {
			t.Fatalf("StartProgress failed: %v", err)
		}
		reordered, err := Reorder(g, started, []string{ids[1], ids[0]}, "user-leader", testNow)
		if err != nil {
			t.Fatalf("Reorder with pinned current failed: %v", err)
		}
		if got := reordered.FindWaypoint(ids[2]).Order; got != 0 {
			t.Errorf("in-progress order = %d, want pinned 0", got)
		}
		if reordered.FindWaypoint(ids[1]).Order != 1 || reordered.FindWaypoint(ids[0]).Order != 2 {
			t.Error("upcoming waypoints not renumbered 1..N")
		}
	})
}

func TestApplyRemoteWaypoint(t *testing.T) {
	g, it := itineraryFixture(t)
	it, wp := addTestWaypoint(t, g, it, "Station", "user-leader")

	t.Run("newer remote copy wins", func(t *testing.T) {
		remote := wp
		remote.Name = "Station (renamed)"
		remote.UpdatedAt = wp.UpdatedAt + 10
		merged := ApplyRemoteWaypoint(it, remote)
		if merged.FindWaypoint(wp.ID).Name != "Station (renamed)" {
			t.Error("newer remote update did not win")
		}
	})

	t.Run("older remote copy loses", func(t *testing.T) {
		remote := wp
		remote.Name = "Stale name"
		remote.UpdatedAt = wp.UpdatedAt - 10
		merged := ApplyRemoteWaypoint(it, remote)
		if merged.FindWaypoint(wp.ID).Name != "Station" {
			t.Error("older remote update overwrote local state")
		}
	})

	t.Run("unknown id is appended", func(t *testing.T) {
		fresh := wp
		fresh.ID = "wp-new"
		merged := ApplyRemoteWaypoint(it, fresh)
		if merged.FindWaypoint("wp-new") == nil {
			t.Error("new remote waypoint not appended")
		}
	})
}

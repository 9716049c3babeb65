package engine

import (
	"errors"
	"testing"
	"time"

	"hither-backend/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mustCreateGroup(t *testing.T) models.Group {
	t.Helper()
	g, err := CreateGroup("Kyoto Day Trip", "user-leader", "Aki", testNow)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return g
}

func countLeaders(g models.Group) int {
	n := 0
	for _, m := range g.Members {
		if m.Role == models.RoleLeader {
			n++
		}
	}
	return n
}

func TestCreateGroup(t *testing.T) {
	g := mustCreateGroup(t)

	if len(g.InviteCode) != InviteCodeLength {
		t.Errorf("invite code length = %d, want %d", len(g.InviteCode), InviteCodeLength)
	}
	for _, c := range g.InviteCode {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			t.Errorf("invite code contains %q, want [A-Z0-9]", c)
		}
	}
	if g.InviteExpiresAt != testNow.Add(24*time.Hour).Unix() {
		t.Errorf("invite expiry = %d, want created+24h", g.InviteExpiresAt)
	}
	if countLeaders(g) != 1 {
		t.Errorf("leader count = %d, want 1", countLeaders(g))
	}
	if g.Leader() == nil || g.Leader().UserID != "user-leader" {
		t.Error("leaderId does not match the leader member")
	}
	if !g.IsActive {
		t.Error("new group should be active")
	}
}

func TestCreateGroupEmptyName(t *testing.T) {
	if _, err := CreateGroup("   ", "user-leader", "Aki", testNow); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestJoin(t *testing.T) {
	g := mustCreateGroup(t)

	t.Run("follower joins with valid code", func(t *testing.T) {
		joined, err := Join(g, g.InviteCode, "user-f1", "Ben", testNow.Add(time.Hour))
		if err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if len(joined.Members) != 2 {
			t.Fatalf("member count = %d, want 2", len(joined.Members))
		}
		m := joined.FindMember("user-f1")
		if m == nil || m.Role != models.RoleFollower {
			t.Error("joined member should be a follower")
		}
		if countLeaders(joined) != 1 {
			t.Errorf("leader count = %d, want 1", countLeaders(joined))
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		if _, err := Join(g, "XXXXXX", "user-f2", "Cam", testNow); !errors.Is(err, ErrInvalidInvite) {
			t.Errorf("err = %v, want ErrInvalidInvite", err)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		late := testNow.Add(25 * time.Hour)
		if _, err := Join(g, g.InviteCode, "user-f2", "Cam", late); !errors.Is(err, ErrExpiredInvite) {
			t.Errorf("err = %v, want ErrExpiredInvite", err)
		}
	})

	t.Run("rejoin is a no-op", func(t *testing.T) {
		joined, _ := Join(g, g.InviteCode, "user-f1", "Ben", testNow)
		again, err := Join(joined, "WRONG!", "user-f1", "Ben", testNow.Add(48*time.Hour))
		if err != nil {
			t.Fatalf("idempotent join failed: %v", err)
		}
		if len(again.Members) != len(joined.Members) {
			t.Errorf("member count changed on rejoin: %d -> %d", len(joined.Members), len(again.Members))
		}
	})
}

func TestRotateInviteCode(t *testing.T) {
	g := mustCreateGroup(t)
	g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
	oldCode := g.InviteCode

	t.Run("follower cannot rotate", func(t *testing.T) {
		if _, err := RotateInviteCode(g, "user-f1", testNow); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("leader rotates", func(t *testing.T) {
		later := testNow.Add(2 * time.Hour)
		rotated, err := RotateInviteCode(g, "user-leader", later)
		if err != nil {
			t.Fatalf("RotateInviteCode failed: %v", err)
		}
		if rotated.InviteCode == oldCode {
			t.Error("invite code unchanged after rotation")
		}
		if rotated.InviteExpiresAt != later.Add(24*time.Hour).Unix() {
			t.Error("invite expiry not reset")
		}

		// old code no longer admits new joins
		if _, err := Join(rotated, oldCode, "user-f2", "Cam", later); !errors.Is(err, ErrInvalidInvite) {
			t.Errorf("join with rotated-out code: err = %v, want ErrInvalidInvite", err)
		}
		// already-joined members are unaffected
		if _, err := Join(rotated, oldCode, "user-f1", "Ben", later); err != nil {
			t.Errorf("existing member join should be a no-op, got %v", err)
		}
	})
}

func TestLeave(t *testing.T) {
	t.Run("leader blocked while followers remain", func(t *testing.T) {
		g := mustCreateGroup(t)
		g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
		if _, err := Leave(g, "user-leader", testNow); !errors.Is(err, ErrLeaderCannotLeave) {
			t.Errorf("err = %v, want ErrLeaderCannotLeave", err)
		}
	})

	t.Run("follower leaves", func(t *testing.T) {
		g := mustCreateGroup(t)
		g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
		left, err := Leave(g, "user-f1", testNow)
		if err != nil {
			t.Fatalf("Leave failed: %v", err)
		}
		if left.FindMember("user-f1") != nil {
			t.Error("member still present after leaving")
		}
		if !left.IsActive {
			t.Error("group should stay active while members remain")
		}
	})

	t.Run("last member deactivates group", func(t *testing.T) {
		g := mustCreateGroup(t)
		left, err := Leave(g, "user-leader", testNow)
		if err != nil {
			t.Fatalf("Leave failed: %v", err)
		}
		if left.IsActive {
			t.Error("group should be inactive once empty")
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		g := mustCreateGroup(t)
		if _, err := Leave(g, "user-ghost", testNow); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateMemberProfile(t *testing.T) {
	g := mustCreateGroup(t)
	g, _ = Join(g, g.InviteCode, "user-f1", "Ben", testNow)
	nickname := "Benny"

	t.Run("self update", func(t *testing.T) {
		updated, err := UpdateMemberProfile(g, "user-f1", "user-f1", &nickname, nil, testNow)
		if err != nil {
			t.Fatalf("UpdateMemberProfile failed: %v", err)
		}
		m := updated.FindMember("user-f1")
		if m.Nickname == nil || *m.Nickname != "Benny" {
			t.Error("nickname not applied")
		}
	})

	t.Run("updating another member is forbidden", func(t *testing.T) {
		if _, err := UpdateMemberProfile(g, "user-leader", "user-f1", &nickname, nil, testNow); !errors.Is(err, ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestLeaderInvariantAcrossSequences(t *testing.T) {
	// join/leave churn never produces a second leader
	g := mustCreateGroup(t)
	for i, id := range []string{"a", "b", "c", "d"} {
		var err error
		g, err = Join(g, g.InviteCode, "user-"+id, "U"+id, testNow.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	g, _ = Leave(g, "user-b", testNow)
	g, _ = Join(g, g.InviteCode, "user-b", "Ub", testNow)
	g, _ = Leave(g, "user-d", testNow)

	if countLeaders(g) != 1 {
		t.Errorf("leader count = %d, want 1", countLeaders(g))
	}
	if g.FindMember(g.LeaderID) == nil {
		t.Error("leaderId no longer matches a member")
	}
}

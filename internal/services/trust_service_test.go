package services

import (
	"context"
	"testing"

	"welcomebook-credits/internal/models"
)

func TestCanAutoApprove(t *testing.T) {
	db := setupTestDB(t)
	trust := NewTrustService(db, testCreditsConfig())

	tests := []struct {
		level models.TrustLevel
		count int
		want  bool
	}{
		{models.TrustLevelStandard, 0, false},
		{models.TrustLevelStandard, 10, false}, // level gates regardless of count
		{models.TrustLevelSilver, 2, false},
		{models.TrustLevelSilver, 3, true},
		{models.TrustLevelGold, 3, true},
		{models.TrustLevelGold, 0, false},
	}

	for _, tt := range tests {
		if got := trust.CanAutoApprove(tt.level, tt.count); got != tt.want {
			t.Errorf("CanAutoApprove(%s, %d) = %v, want %v", tt.level, tt.count, got, tt.want)
		}
	}
}

func TestGetProfileCreatesDefault(t *testing.T) {
	db := setupTestDB(t)
	trust := NewTrustService(db, testCreditsConfig())
	account := createTestAccount(t, db, "trust@test.com")

	profile, err := trust.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.TrustLevel != models.TrustLevelStandard {
		t.Errorf("expected STANDARD default, got %s", profile.TrustLevel)
	}
	if profile.ApprovedRequestsCount != 0 {
		t.Errorf("expected zero approvals, got %d", profile.ApprovedRequestsCount)
	}

	// Second call returns the same row.
	again, err := trust.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("second GetProfile failed: %v", err)
	}
	if again.ID != profile.ID {
		t.Errorf("expected the same profile row, got %d and %d", profile.ID, again.ID)
	}
}

func TestRecordApprovalIncrements(t *testing.T) {
	db := setupTestDB(t)
	trust := NewTrustService(db, testCreditsConfig())
	account := createTestAccount(t, db, "approvals@test.com")

	if _, err := trust.GetProfile(context.Background(), account.ID); err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := trust.RecordApproval(db, account.ID); err != nil {
			t.Fatalf("RecordApproval %d failed: %v", i, err)
		}
	}

	profile, err := trust.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.ApprovedRequestsCount != 3 {
		t.Errorf("expected 3 approvals, got %d", profile.ApprovedRequestsCount)
	}
}

func TestSetTrustLevel(t *testing.T) {
	db := setupTestDB(t)
	trust := NewTrustService(db, testCreditsConfig())
	account := createTestAccount(t, db, "level@test.com")

	if err := trust.SetTrustLevel(context.Background(), account.ID, models.TrustLevelGold); err != nil {
		t.Fatalf("SetTrustLevel failed: %v", err)
	}

	profile, _ := trust.GetProfile(context.Background(), account.ID)
	if profile.TrustLevel != models.TrustLevelGold {
		t.Errorf("expected GOLD, got %s", profile.TrustLevel)
	}

	if err := trust.SetTrustLevel(context.Background(), account.ID, models.TrustLevel("PLATINUM")); err == nil {
		t.Error("expected error for unknown trust level")
	}
}

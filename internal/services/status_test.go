package services

import (
	"testing"
	"time"

	"welcomebook-credits/internal/models"
)

func TestNextStatusForBalance(t *testing.T) {
	tests := []struct {
		name    string
		current models.AccountStatus
		balance int64
		amount  int64
		want    models.AccountStatus
		changed bool
	}{
		{"active debit above zero", models.AccountStatusActive, 5, -1, models.AccountStatusActive, false},
		{"active debit to zero", models.AccountStatusActive, 0, -1, models.AccountStatusGracePeriod, true},
		{"active debit below zero", models.AccountStatusActive, -2, -1, models.AccountStatusGracePeriod, true},
		{"active credit", models.AccountStatusActive, 100, 50, models.AccountStatusActive, false},
		{"grace credit above zero", models.AccountStatusGracePeriod, 30, 30, models.AccountStatusActive, true},
		{"grace credit still non-positive", models.AccountStatusGracePeriod, -1, 2, models.AccountStatusGracePeriod, false},
		{"grace debit", models.AccountStatusGracePeriod, -3, -1, models.AccountStatusGracePeriod, false},
		{"suspended credit above zero", models.AccountStatusSuspended, 100, 105, models.AccountStatusActive, true},
		{"suspended credit still non-positive", models.AccountStatusSuspended, -5, 1, models.AccountStatusSuspended, false},
		{"to_delete credit", models.AccountStatusToDelete, 100, 100, models.AccountStatusToDelete, false},
		{"to_delete debit", models.AccountStatusToDelete, -1, -1, models.AccountStatusToDelete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := NextStatusForBalance(tt.current, tt.balance, tt.amount)
			if got != tt.want || changed != tt.changed {
				t.Errorf("NextStatusForBalance(%s, %d, %d) = (%s, %v), want (%s, %v)",
					tt.current, tt.balance, tt.amount, got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestGraceExpired(t *testing.T) {
	now := time.Now()
	window := 7 * 24 * time.Hour
	eightDaysAgo := now.Add(-8 * 24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	if GraceExpired(models.AccountStatusActive, -1, &eightDaysAgo, window, now) {
		t.Error("active account must never expire from grace")
	}
	if GraceExpired(models.AccountStatusGracePeriod, 5, &eightDaysAgo, window, now) {
		t.Error("positive balance must not expire")
	}
	if GraceExpired(models.AccountStatusGracePeriod, -1, &yesterday, window, now) {
		t.Error("window not yet elapsed")
	}
	if GraceExpired(models.AccountStatusGracePeriod, -1, nil, window, now) {
		t.Error("missing status_since must not expire")
	}
	if !GraceExpired(models.AccountStatusGracePeriod, 0, &eightDaysAgo, window, now) {
		t.Error("expected expiry after the window at zero balance")
	}
}

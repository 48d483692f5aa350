package services

import (
	"time"

	"welcomebook-credits/internal/models"
)

// The account status machine is read-only with respect to the ledger: it
// observes balance movements and the clock, it never writes transactions.
// Balance-driven transitions are applied by the ledger write path; the
// time-driven grace expiry is applied by the consumption sweep.

// NextStatusForBalance returns the status an account transitions to after a
// ledger write of amount leaves it at balance. The second return is false
// when no transition applies.
func NextStatusForBalance(current models.AccountStatus, balance int64, amount int64) (models.AccountStatus, bool) {
	switch current {
	case models.AccountStatusActive:
		// A debit draining the shared pool to zero opens the grace window.
		if amount < 0 && balance <= 0 {
			return models.AccountStatusGracePeriod, true
		}
	case models.AccountStatusGracePeriod:
		if amount > 0 && balance > 0 {
			return models.AccountStatusActive, true
		}
	case models.AccountStatusSuspended:
		// Reactivation is immediate on the credit-raising write, not gated
		// by the scheduler.
		if amount > 0 && balance > 0 {
			return models.AccountStatusActive, true
		}
	}
	return current, false
}

// GraceExpired reports whether a grace-period account has run out its window
// with the balance still at or below zero.
func GraceExpired(status models.AccountStatus, balance int64, statusSince *time.Time, window time.Duration, now time.Time) bool {
	if status != models.AccountStatusGracePeriod || balance > 0 {
		return false
	}
	if statusSince == nil {
		return false
	}
	return now.Sub(*statusSince) >= window
}

package services

import (
	"context"
	"testing"
	"time"

	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

func newTestConsumption(t *testing.T, db *gorm.DB) (*ConsumptionService, *LedgerService) {
	ledger, publisher := newTestLedger(t, db)
	return NewConsumptionService(db, ledger, testCreditsConfig(), publisher), ledger
}

func fundAccount(t *testing.T, ledger *LedgerService, accountID uint, amount int64) {
	if _, err := ledger.Record(context.Background(), EntryParams{
		AccountID: accountID,
		Amount:    amount,
		Type:      models.TxInitialBonus,
	}); err != nil {
		t.Fatalf("failed to fund account: %v", err)
	}
}

func addBook(t *testing.T, db *gorm.DB, accountID uint, slug string) {
	book := models.Welcomebook{AccountID: accountID, Name: slug, Slug: slug}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("failed to create welcomebook: %v", err)
	}
}

func setLastConsumption(t *testing.T, db *gorm.DB, accountID uint, at time.Time) {
	if err := db.Model(&models.Account{}).Where("id = ?", accountID).
		Update("last_consumption_at", at).Error; err != nil {
		t.Fatalf("failed to set last_consumption_at: %v", err)
	}
}

func TestIntervalForCount(t *testing.T) {
	db := setupTestDB(t)
	consumption, _ := newTestConsumption(t, db)

	tests := []struct {
		count int64
		want  time.Duration
	}{
		{0, 24 * time.Hour},
		{1, 24 * time.Hour},
		{2, 12 * time.Hour},
		{3, 8 * time.Hour},
		{24, time.Hour},
		{100, time.Hour}, // floored at the minimum
	}

	for _, tt := range tests {
		if got := consumption.IntervalForCount(tt.count); got != tt.want {
			t.Errorf("IntervalForCount(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestTickDebitsDueAccount(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "due@test.com")
	fundAccount(t, ledger, account.ID, 150)
	addBook(t, db, account.ID, "due-book")

	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-25*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 1 {
		t.Fatalf("expected 1 debit, got %d", stats.Debited)
	}

	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 149 {
		t.Errorf("expected balance 149, got %d", balance)
	}

	var updated models.Account
	db.First(&updated, account.ID)
	if updated.LastConsumptionAt == nil || now.Sub(*updated.LastConsumptionAt) > time.Second {
		t.Errorf("expected last_consumption_at to move to the sweep instant")
	}
}

func TestTickSkipsAccountNotYetDue(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "notdue@test.com")
	fundAccount(t, ledger, account.ID, 150)
	addBook(t, db, account.ID, "notdue-book")

	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-2*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 0 {
		t.Errorf("expected no debits, got %d", stats.Debited)
	}
}

func TestTickMoreBooksDrainFaster(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "many@test.com")
	fundAccount(t, ledger, account.ID, 150)
	addBook(t, db, account.ID, "many-1")
	addBook(t, db, account.ID, "many-2")

	// 13 hours ago: past the 12h interval for two books, short of 24h for one.
	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-13*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 1 {
		t.Errorf("expected 1 debit with two welcomebooks, got %d", stats.Debited)
	}
}

func TestTickBoundedCatchUp(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "catchup@test.com")
	fundAccount(t, ledger, account.ID, 150)
	addBook(t, db, account.ID, "catchup-book")

	// Ten missed intervals charge once per sweep, never retroactively.
	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-10*24*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 1 {
		t.Fatalf("expected exactly 1 catch-up debit, got %d", stats.Debited)
	}

	// Immediately afterwards nothing is due.
	stats = consumption.Tick(context.Background(), now.Add(time.Minute))
	if stats.Debited != 0 {
		t.Errorf("expected no second debit, got %d", stats.Debited)
	}

	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 149 {
		t.Errorf("expected balance 149, got %d", balance)
	}
}

func TestTickNoWelcomebooksNoDrain(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "nobooks@test.com")
	fundAccount(t, ledger, account.ID, 150)

	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-48*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 0 {
		t.Errorf("expected no debit without welcomebooks, got %d", stats.Debited)
	}
}

func TestTickDrainToZeroEntersGrace(t *testing.T) {
	db := setupTestDB(t)
	consumption, ledger := newTestConsumption(t, db)
	account := createTestAccount(t, db, "grace@test.com")
	fundAccount(t, ledger, account.ID, 1)
	addBook(t, db, account.ID, "grace-book")

	now := time.Now()
	setLastConsumption(t, db, account.ID, now.Add(-25*time.Hour))

	stats := consumption.Tick(context.Background(), now)
	if stats.Debited != 1 {
		t.Fatalf("expected 1 debit, got %d", stats.Debited)
	}
	if stats.Suspended != 0 {
		t.Fatalf("grace must not suspend in the sweep that opened it")
	}

	var updated models.Account
	db.First(&updated, account.ID)
	if updated.Status != models.AccountStatusGracePeriod {
		t.Errorf("expected GRACE_PERIOD, got %s", updated.Status)
	}

	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 0 {
		t.Errorf("expected balance 0, got %d", balance)
	}
}

func TestTickSuspendsAfterGraceWindow(t *testing.T) {
	db := setupTestDB(t)
	consumption, _ := newTestConsumption(t, db)
	account := createTestAccount(t, db, "suspend@test.com")
	addBook(t, db, account.ID, "suspend-book")

	// Grace opened eight days ago with the pool empty.
	eightDaysAgo := time.Now().Add(-8 * 24 * time.Hour)
	if err := db.Model(&models.Account{}).Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"status":       models.AccountStatusGracePeriod,
			"status_since": eightDaysAgo,
		}).Error; err != nil {
		t.Fatalf("failed to seed grace state: %v", err)
	}
	setLastConsumption(t, db, account.ID, time.Now().Add(-time.Hour))

	stats := consumption.Tick(context.Background(), time.Now())
	if stats.Suspended != 1 {
		t.Fatalf("expected 1 suspension, got %d", stats.Suspended)
	}

	var updated models.Account
	db.First(&updated, account.ID)
	if updated.Status != models.AccountStatusSuspended {
		t.Errorf("expected SUSPENDED, got %s", updated.Status)
	}

	// Suspension is a status transition, never a ledger write.
	var count int64
	db.Model(&models.CreditTransaction{}).Where("account_id = ?", account.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no ledger entries from suspension, got %d", count)
	}
}

func TestTickIgnoresSuspendedAndDeletedAccounts(t *testing.T) {
	db := setupTestDB(t)
	consumption, _ := newTestConsumption(t, db)

	for _, status := range []models.AccountStatus{models.AccountStatusSuspended, models.AccountStatusToDelete} {
		account := createTestAccount(t, db, string(status)+"@test.com")
		addBook(t, db, account.ID, "book-"+string(status))
		db.Model(&models.Account{}).Where("id = ?", account.ID).Update("status", status)
		setLastConsumption(t, db, account.ID, time.Now().Add(-48*time.Hour))
	}

	stats := consumption.Tick(context.Background(), time.Now())
	if stats.Scanned != 0 {
		t.Errorf("expected no accounts scanned, got %d", stats.Scanned)
	}
	if stats.Debited != 0 {
		t.Errorf("expected no debits, got %d", stats.Debited)
	}
}

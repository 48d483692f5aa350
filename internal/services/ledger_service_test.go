package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/database"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testCreditsConfig() config.CreditsConfig {
	return config.CreditsConfig{
		InitialBonus:       150,
		BlogReward:         150,
		GraceWindow:        7 * 24 * time.Hour,
		BaseConsumption:    24 * time.Hour,
		MinConsumption:     time.Hour,
		ConsumptionTick:    time.Hour,
		TrustMinApprovals:  3,
		ConflictMaxRetries: 5,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	// A named in-memory DB with cache=shared keeps all handles in the test on
	// the same data; the single connection serializes transactions so sqlite
	// never reports busy.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func newTestLedger(t *testing.T, db *gorm.DB) (*LedgerService, *events.Publisher) {
	publisher := events.NewPublisher(db)
	return NewLedgerService(db, testCreditsConfig(), publisher), publisher
}

func createTestAccount(t *testing.T, db *gorm.DB, email string) *models.Account {
	now := time.Now()
	account := models.Account{
		Email:             email,
		Status:            models.AccountStatusActive,
		StatusSince:       &now,
		LastConsumptionAt: &now,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return &account
}

func TestRecordFoldInvariant(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "fold@test.com")
	ctx := context.Background()

	amounts := []int64{150, 30, -1, -1, 40}
	types := []models.TransactionType{
		models.TxInitialBonus, models.TxEarnSocial, models.TxSpendDaily,
		models.TxSpendDaily, models.TxEarnBlog,
	}

	for i, amount := range amounts {
		if _, err := ledger.Record(ctx, EntryParams{
			AccountID: account.ID,
			Amount:    amount,
			Type:      types[i],
		}); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	balance, err := ledger.GetBalance(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 218 {
		t.Errorf("expected balance 218, got %d", balance)
	}

	var updated models.Account
	if err := db.First(&updated, account.ID).Error; err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if updated.LifetimeEarned != 220 {
		t.Errorf("expected lifetime earned 220, got %d", updated.LifetimeEarned)
	}

	// The ordered balance_after sequence must be the running fold of amounts.
	var transactions []models.CreditTransaction
	if err := db.Where("account_id = ?", account.ID).Order("id ASC").Find(&transactions).Error; err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}
	var running int64
	for _, tx := range transactions {
		running += tx.Amount
		if tx.BalanceAfter != running {
			t.Errorf("transaction %d: balance_after=%d, expected %d", tx.ID, tx.BalanceAfter, running)
		}
	}

	if err := ledger.VerifyAccount(ctx, account.ID); err != nil {
		t.Errorf("VerifyAccount failed on a clean ledger: %v", err)
	}
}

func TestRecordRejectsZeroAmount(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "zero@test.com")

	_, err := ledger.Record(context.Background(), EntryParams{
		AccountID: account.ID,
		Amount:    0,
		Type:      models.TxEarnSocial,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	var count int64
	db.Model(&models.CreditTransaction{}).Where("account_id = ?", account.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no transactions, got %d", count)
	}
}

func TestRecordUnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)

	_, err := ledger.Record(context.Background(), EntryParams{
		AccountID: 9999,
		Amount:    10,
		Type:      models.TxEarnSocial,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordReplicatesToWelcomebooks(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "books@test.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		book := models.Welcomebook{
			AccountID: account.ID,
			Name:      fmt.Sprintf("Book %d", i),
			Slug:      fmt.Sprintf("book-%d", i),
		}
		if err := db.Create(&book).Error; err != nil {
			t.Fatalf("failed to create welcomebook: %v", err)
		}
	}

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    75,
		Type:      models.TxEarnSocial,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	var books []models.Welcomebook
	if err := db.Where("account_id = ?", account.ID).Find(&books).Error; err != nil {
		t.Fatalf("failed to load welcomebooks: %v", err)
	}
	for _, book := range books {
		if book.Balance != 75 {
			t.Errorf("welcomebook %d: expected balance 75, got %d", book.ID, book.Balance)
		}
		if book.LifetimeEarned != 75 {
			t.Errorf("welcomebook %d: expected lifetime 75, got %d", book.ID, book.LifetimeEarned)
		}
	}
}

func TestRecordConcurrentWritersNoLostUpdate(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "race@test.com")
	ctx := context.Background()

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    150,
		Type:      models.TxInitialBonus,
	}); err != nil {
		t.Fatalf("initial bonus failed: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Record(ctx, EntryParams{
				AccountID: account.ID,
				Amount:    6,
				Type:      models.TxEarnSocial,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent Record failed: %v", err)
		}
	}

	balance, err := ledger.GetBalance(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 210 {
		t.Errorf("expected balance 210 after concurrent writes, got %d", balance)
	}

	if err := ledger.VerifyAccount(ctx, account.ID); err != nil {
		t.Errorf("VerifyAccount failed after concurrent writes: %v", err)
	}
}

func TestRecordStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "status@test.com")
	ctx := context.Background()

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    1,
		Type:      models.TxEarnSocial,
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	// Draining to zero opens the grace window.
	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    -1,
		Type:      models.TxSpendDaily,
	}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	var updated models.Account
	db.First(&updated, account.ID)
	if updated.Status != models.AccountStatusGracePeriod {
		t.Errorf("expected GRACE_PERIOD, got %s", updated.Status)
	}

	// A credit raising the balance above zero reactivates immediately.
	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    100,
		Type:      models.TxPurchase,
	}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	db.First(&updated, account.ID)
	if updated.Status != models.AccountStatusActive {
		t.Errorf("expected ACTIVE after purchase, got %s", updated.Status)
	}
}

func TestRecordEmitsEvents(t *testing.T) {
	db := setupTestDB(t)
	ledger, publisher := newTestLedger(t, db)
	account := createTestAccount(t, db, "events@test.com")
	ctx := context.Background()

	var received []models.CreditEvent
	publisher.Subscribe(func(event models.CreditEvent) {
		received = append(received, event)
	})

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    150,
		Type:      models.TxInitialBonus,
	}); err != nil {
		t.Fatalf("bonus failed: %v", err)
	}

	// The initial bonus is part of signup, not an earning notification.
	if len(received) != 0 {
		t.Fatalf("expected no events for initial bonus, got %d", len(received))
	}

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    30,
		Type:      models.TxEarnSocial,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != models.EventCredited {
		t.Errorf("expected credited event, got %s", received[0].Type)
	}

	// The dispatched event is the persisted row, committed with the write.
	var persisted models.CreditEvent
	if err := db.Where("account_id = ? AND type = ?", account.ID, models.EventCredited).
		First(&persisted).Error; err != nil {
		t.Fatalf("expected a persisted credited event: %v", err)
	}
	if persisted.EventID != received[0].EventID {
		t.Errorf("dispatched event %s does not match persisted row %s",
			received[0].EventID, persisted.EventID)
	}
}

func TestRecordFailedApplyPersistsNoEvent(t *testing.T) {
	db := setupTestDB(t)
	ledger, publisher := newTestLedger(t, db)
	account := createTestAccount(t, db, "rollback@test.com")

	var received []models.CreditEvent
	publisher.Subscribe(func(event models.CreditEvent) {
		received = append(received, event)
	})

	_, err := ledger.Record(context.Background(), EntryParams{
		AccountID: account.ID,
		Amount:    30,
		Type:      models.TxEarnSocial,
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			return fmt.Errorf("downstream write failed")
		},
	})
	if err == nil {
		t.Fatal("expected the write to fail")
	}

	// The rollback takes the event row with it; nothing is dispatched.
	var events int64
	db.Model(&models.CreditEvent{}).Where("account_id = ?", account.ID).Count(&events)
	if events != 0 {
		t.Errorf("expected no persisted events, got %d", events)
	}
	if len(received) != 0 {
		t.Errorf("expected no dispatched events, got %d", len(received))
	}

	var entries int64
	db.Model(&models.CreditTransaction{}).Where("account_id = ?", account.ID).Count(&entries)
	if entries != 0 {
		t.Errorf("expected no ledger entries, got %d", entries)
	}
}

func TestVerifyAccountDetectsCorruption(t *testing.T) {
	db := setupTestDB(t)
	ledger, _ := newTestLedger(t, db)
	account := createTestAccount(t, db, "corrupt@test.com")
	ctx := context.Background()

	if _, err := ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    100,
		Type:      models.TxEarnSocial,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Tamper with the projection behind the ledger's back.
	if err := db.Model(&models.Account{}).Where("id = ?", account.ID).
		Update("balance", 999).Error; err != nil {
		t.Fatalf("tamper failed: %v", err)
	}

	err := ledger.VerifyAccount(ctx, account.ID)
	if !errors.Is(err, models.ErrLedgerCorrupt) {
		t.Errorf("expected ErrLedgerCorrupt, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

func newTestBlogService(t *testing.T, db *gorm.DB) (*BlogService, *LedgerService) {
	ledger, _ := newTestLedger(t, db)
	return NewBlogService(db, ledger, testCreditsConfig()), ledger
}

func TestBlogSubmit(t *testing.T) {
	db := setupTestDB(t)
	svc, ledger := newTestBlogService(t, db)
	account := createTestAccount(t, db, "blog@test.com")

	submission, err := svc.Submit(context.Background(), account.ID, "https://myblog.com/why-welcome-books")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submission.Status != models.BlogStatusPending {
		t.Errorf("expected PENDING, got %s", submission.Status)
	}
	if submission.CreditsRequested != 150 {
		t.Errorf("expected fixed reward 150, got %d", submission.CreditsRequested)
	}

	// No crediting before the decision.
	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 0 {
		t.Errorf("expected balance 0, got %d", balance)
	}
}

func TestBlogSubmitRejectsDuplicateURL(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestBlogService(t, db)
	account := createTestAccount(t, db, "dup@test.com")
	other := createTestAccount(t, db, "dupother@test.com")

	url := "https://myblog.com/duplicate"
	if _, err := svc.Submit(context.Background(), account.ID, url); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if _, err := svc.Submit(context.Background(), account.ID, url); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate URL, got %v", err)
	}

	// A different account may submit the same article.
	if _, err := svc.Submit(context.Background(), other.ID, url); err != nil {
		t.Errorf("other account's Submit failed: %v", err)
	}
}

func TestBlogSubmitRejectsBadURL(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestBlogService(t, db)
	account := createTestAccount(t, db, "badurl@test.com")

	for _, url := range []string{"", "   ", "not a url", "ftp//missing"} {
		if _, err := svc.Submit(context.Background(), account.ID, url); !errors.Is(err, models.ErrValidation) {
			t.Errorf("expected ErrValidation for %q, got %v", url, err)
		}
	}
}

func TestBlogDecide(t *testing.T) {
	db := setupTestDB(t)
	svc, ledger := newTestBlogService(t, db)
	account := createTestAccount(t, db, "blogdecide@test.com")

	submission, err := svc.Submit(context.Background(), account.ID, "https://myblog.com/approved")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	decided, err := svc.Decide(context.Background(), 1, submission.ID, true, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.BlogStatusApproved {
		t.Errorf("expected APPROVED, got %s", decided.Status)
	}

	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 150 {
		t.Errorf("expected balance 150, got %d", balance)
	}

	var entry models.CreditTransaction
	if err := db.Where("account_id = ?", account.ID).First(&entry).Error; err != nil {
		t.Fatalf("failed to load transaction: %v", err)
	}
	if entry.Type != models.TxEarnBlog {
		t.Errorf("expected earn_blog entry, got %s", entry.Type)
	}

	// One-time decision.
	if _, err := svc.Decide(context.Background(), 1, submission.ID, false, nil); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on second decision, got %v", err)
	}
}

func TestBlogRejectWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc, ledger := newTestBlogService(t, db)
	account := createTestAccount(t, db, "blogreject@test.com")

	submission, err := svc.Submit(context.Background(), account.ID, "https://myblog.com/rejected")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	reason := "article does not mention the product"
	decided, err := svc.Decide(context.Background(), 1, submission.ID, false, &reason)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.BlogStatusRejected {
		t.Errorf("expected REJECTED, got %s", decided.Status)
	}

	balance, _ := ledger.GetBalance(context.Background(), account.ID)
	if balance != 0 {
		t.Errorf("expected balance 0 after rejection, got %d", balance)
	}
}

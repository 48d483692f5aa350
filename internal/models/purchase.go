package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditPackage is a purchasable bundle of credits. PriceUSD is money, not
// credits, so it keeps decimal precision.
type CreditPackage struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Credits   int64           `gorm:"not null" json:"credits"`
	PriceUSD  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_usd"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (CreditPackage) TableName() string {
	return "credit_packages"
}

// CreditPurchase records one confirmed payment from the billing collaborator.
// ExternalPaymentID is the dedupe key against at-least-once webhook delivery.
type CreditPurchase struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	AccountID         uint            `gorm:"not null;index" json:"account_id"`
	Account           *Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	PackageID         uint            `gorm:"not null;index" json:"package_id"`
	Package           *CreditPackage  `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	ExternalPaymentID string          `gorm:"size:100;uniqueIndex;not null" json:"external_payment_id"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount_paid"`
	Credits           int64           `gorm:"not null" json:"credits"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (CreditPurchase) TableName() string {
	return "credit_purchases"
}

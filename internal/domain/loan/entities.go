package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusResolved  Status = "resolved"
	StatusDefaulted Status = "defaulted"
)

const (
	hoursPerYear = 8760
	bpsDivisor   = 10_000
)

// debtDivisor = hours-per-year x basis-point divisor, the denominator of the
// flat-fee interest formula.
var debtDivisor = decimal.NewFromInt(hoursPerYear * bpsDivisor)

// Loan is a flat-fee term loan: interest rate and origination fee are fixed
// at origination and never change with elapsed time or payments.
type Loan struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID           string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	DeskID           string          `gorm:"size:32;index:idx_loans_desk_active" json:"desk_id"`
	CollectionID     string          `gorm:"size:32" json:"collection_id"`
	CollateralItemID string          `gorm:"size:64" json:"collateral_item_id"`
	Principal        decimal.Decimal `gorm:"type:decimal(38,0)" json:"principal"`
	DurationHours    uint64          `gorm:"column:duration_hours" json:"duration_hours"`
	InterestBps      uint64          `gorm:"column:interest_bps" json:"interest_bps"`
	AmountPaidBack   decimal.Decimal `gorm:"type:decimal(38,0)" json:"amount_paid_back"`
	OriginationFee   decimal.Decimal `gorm:"type:decimal(38,0)" json:"origination_fee"`
	LenderClaimID    string          `gorm:"size:64" json:"lender_claim_id"`
	BorrowerClaimID  string          `gorm:"size:64" json:"borrower_claim_id"`
	StartTime        time.Time       `gorm:"column:start_time" json:"start_time"`
	Status           Status          `gorm:"type:enum('active','resolved','defaulted');default:'active'" json:"status"`
	StatusUpdatedAt  time.Time       `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// TotalDebt is principal plus the whole-term interest:
// principal * interestBps * durationHours / (8760 * 10000), truncated.
// Constant for the life of the loan.
func (l *Loan) TotalDebt() decimal.Decimal {
	interest := l.Principal.
		Mul(decimal.NewFromUint64(l.InterestBps)).
		Mul(decimal.NewFromUint64(l.DurationHours))
	q, _ := interest.QuoRem(debtDivisor, 0)
	return l.Principal.Add(q)
}

// AmountDue is the remaining debt; callers must check the loan window first.
func (l *Loan) AmountDue() decimal.Decimal {
	return l.TotalDebt().Sub(l.AmountPaidBack)
}

func (l *Loan) ExpiresAt() time.Time {
	return l.StartTime.Add(time.Duration(l.DurationHours) * time.Hour)
}

// PastDue reports whether the repayment window has closed. Strictly after
// expiry; a payment at the exact expiry instant is still in-window.
func (l *Loan) PastDue(now time.Time) bool {
	return now.After(l.ExpiresAt())
}

// OriginationFeeFor computes the borrower-paid fee for a principal at the
// given fee rate. The fee is routed to the treasury and never touches desk
// balance.
func OriginationFeeFor(principal decimal.Decimal, feeBps uint64) decimal.Decimal {
	q, _ := principal.Mul(decimal.NewFromUint64(feeBps)).QuoRem(decimal.NewFromInt(bpsDivisor), 0)
	return q
}

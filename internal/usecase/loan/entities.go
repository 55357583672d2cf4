package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "desklend-backend/internal/domain/loan"
)

type OriginateInput struct {
	DeskID                 string          `json:"desk_id"`
	CollectionID           string          `json:"collection_id"`
	CollateralItemID       string          `json:"collateral_item_id"`
	Amount                 decimal.Decimal `json:"amount"`
	DurationHours          uint64          `json:"duration_hours"`
	MaxInterestBpsAccepted uint64          `json:"max_interest_bps_accepted"`
}

type LoanDTO struct {
	LoanID           string          `json:"loan_id"`
	DeskID           string          `json:"desk_id"`
	CollectionID     string          `json:"collection_id"`
	CollateralItemID string          `json:"collateral_item_id"`
	Principal        decimal.Decimal `json:"principal"`
	DurationHours    uint64          `json:"duration_hours"`
	InterestBps      uint64          `json:"interest_bps"`
	AmountPaidBack   decimal.Decimal `json:"amount_paid_back"`
	OriginationFee   decimal.Decimal `json:"origination_fee"`
	TotalDebt        decimal.Decimal `json:"total_debt"`
	StartTime        time.Time       `json:"start_time"`
	ExpiresAt        time.Time       `json:"expires_at"`
	Status           string          `json:"status"`
}

type AmountDueDTO struct {
	LoanID    string          `json:"loan_id"`
	AmountDue decimal.Decimal `json:"amount_due"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type PaymentDTO struct {
	LoanID         string          `json:"loan_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	AmountPaidBack decimal.Decimal `json:"amount_paid_back"`
	Remaining      decimal.Decimal `json:"remaining"`
	Status         string          `json:"status"`
}

func loanDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.LoanID,
		DeskID:           l.DeskID,
		CollectionID:     l.CollectionID,
		CollateralItemID: l.CollateralItemID,
		Principal:        l.Principal,
		DurationHours:    l.DurationHours,
		InterestBps:      l.InterestBps,
		AmountPaidBack:   l.AmountPaidBack,
		OriginationFee:   l.OriginationFee,
		TotalDebt:        l.TotalDebt(),
		StartTime:        l.StartTime,
		ExpiresAt:        l.ExpiresAt(),
		Status:           string(l.Status),
	}
}

package desk

import (
	"time"

	"github.com/shopspring/decimal"

	domain "desklend-backend/internal/domain/desk"
)

type LoanConfigInput struct {
	CollectionID     string          `json:"collection_id"`
	CollateralKind   string          `json:"collateral_kind"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	MinDurationHours uint64          `json:"min_duration_hours"`
	MaxDurationHours uint64          `json:"max_duration_hours"`
	MinInterestBps   uint64          `json:"min_interest_bps"`
	MaxInterestBps   uint64          `json:"max_interest_bps"`
}

type CreateDeskInput struct {
	ValueAssetID   string            `json:"value_asset_id"`
	InitialDeposit decimal.Decimal   `json:"initial_deposit"`
	LoanConfigs    []LoanConfigInput `json:"loan_configs"`
}

type DeskDTO struct {
	DeskID       string          `json:"desk_id"`
	OwnerClaimID string          `json:"owner_claim_id"`
	ValueAssetID string          `json:"value_asset_id"`
	Balance      decimal.Decimal `json:"balance"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type LoanConfigDTO struct {
	CollectionID     string          `json:"collection_id"`
	CollateralKind   string          `json:"collateral_kind"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	MinDurationHours uint64          `json:"min_duration_hours"`
	MaxDurationHours uint64          `json:"max_duration_hours"`
	MinInterestBps   uint64          `json:"min_interest_bps"`
	MaxInterestBps   uint64          `json:"max_interest_bps"`
}

func deskDTO(d *domain.LendingDesk) *DeskDTO {
	return &DeskDTO{
		DeskID:       d.DeskID,
		OwnerClaimID: d.OwnerClaimID,
		ValueAssetID: d.ValueAssetID,
		Balance:      d.Balance,
		Status:       string(d.Status),
		CreatedAt:    d.CreatedAt,
	}
}

func configDTO(c *domain.LoanConfig) *LoanConfigDTO {
	return &LoanConfigDTO{
		CollectionID:     c.CollectionID,
		CollateralKind:   string(c.CollateralKind),
		MinAmount:        c.MinAmount,
		MaxAmount:        c.MaxAmount,
		MinDurationHours: c.MinDurationHours,
		MaxDurationHours: c.MaxDurationHours,
		MinInterestBps:   c.MinInterestBps,
		MaxInterestBps:   c.MaxInterestBps,
	}
}

package desk

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusFrozen    Status = "frozen"
	StatusDissolved Status = "dissolved"
)

// CollateralKind mirrors the collection class reported by the custody
// collaborator at config time.
type CollateralKind string

const (
	KindSingleUnit CollateralKind = "single_unit"
	KindMultiUnit  CollateralKind = "multi_unit"
)

type LendingDesk struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	DeskID        string          `gorm:"size:32;uniqueIndex:ux_desks_desk_id_active" json:"desk_id"`
	OwnerClaimID  string          `gorm:"size:64" json:"owner_claim_id"`
	ValueAssetID  string          `gorm:"size:64" json:"value_asset_id"`
	Balance       decimal.Decimal `gorm:"type:decimal(38,0)" json:"balance"`
	Status        Status          `gorm:"type:enum('active','frozen','dissolved');default:'active'" json:"status"`
	StatusUpdated time.Time       `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LendingDesk) TableName() string { return "lending_desks" }

// LoanConfig is the admissible amount/duration/interest window a desk offers
// for one collateral collection. Keyed (desk, collection); upserts within a
// batch are last-write-wins.
type LoanConfig struct {
	ID               uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	DeskNumID        uint64          `gorm:"column:desk_id;not null;index;uniqueIndex:ux_configs_desk_collection" json:"-"`
	CollectionID     string          `gorm:"column:collection_id;size:32;not null;uniqueIndex:ux_configs_desk_collection" json:"collection_id"`
	CollateralKind   CollateralKind  `gorm:"column:collateral_kind;type:enum('single_unit','multi_unit');not null" json:"collateral_kind"`
	MinAmount        decimal.Decimal `gorm:"column:min_amount;type:decimal(38,0)" json:"min_amount"`
	MaxAmount        decimal.Decimal `gorm:"column:max_amount;type:decimal(38,0)" json:"max_amount"`
	MinDurationHours uint64          `gorm:"column:min_duration_hours" json:"min_duration_hours"`
	MaxDurationHours uint64          `gorm:"column:max_duration_hours" json:"max_duration_hours"`
	MinInterestBps   uint64          `gorm:"column:min_interest_bps" json:"min_interest_bps"`
	MaxInterestBps   uint64          `gorm:"column:max_interest_bps" json:"max_interest_bps"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (LoanConfig) TableName() string { return "loan_configs" }

// Validate enforces the per-config range invariants, including the
// degenerate-range rule: a fixed amount+duration offer must carry exactly
// one interest rate.
func (c *LoanConfig) Validate() error {
	if c.CollectionID == "" {
		return ErrInvalidCollateralCollection
	}
	if c.CollateralKind != KindSingleUnit && c.CollateralKind != KindMultiUnit {
		return ErrInvalidCollateralCollection
	}
	if !c.MinAmount.IsPositive() {
		return ErrMinAmountIsZero
	}
	if c.MaxAmount.LessThan(c.MinAmount) {
		return ErrMaxAmountIsLessThanMin
	}
	if c.MinDurationHours == 0 {
		return ErrMinDurationIsZero
	}
	if c.MaxDurationHours < c.MinDurationHours {
		return ErrMaxDurationIsLessThanMin
	}
	if c.MinInterestBps == 0 {
		return ErrMinInterestIsZero
	}
	if c.MaxInterestBps < c.MinInterestBps {
		return ErrMaxInterestIsLessThanMin
	}
	if c.MinAmount.Equal(c.MaxAmount) &&
		c.MinDurationHours == c.MaxDurationHours &&
		c.MinInterestBps != c.MaxInterestBps {
		return ErrInvalidInterest
	}
	return nil
}

// PickInterestBps selects the rate for a requested duration: a degenerate
// interest range short-circuits, otherwise the rate interpolates linearly on
// the duration's position inside [minDuration, maxDuration] with truncating
// division.
func (c *LoanConfig) PickInterestBps(durationHours uint64) uint64 {
	if c.MinInterestBps == c.MaxInterestBps {
		return c.MinInterestBps
	}
	span := c.MaxDurationHours - c.MinDurationHours
	if span == 0 {
		return c.MinInterestBps
	}
	offset := durationHours - c.MinDurationHours
	return c.MinInterestBps + (c.MaxInterestBps-c.MinInterestBps)*offset/span
}

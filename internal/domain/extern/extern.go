// Package extern declares the boundary contracts the engine consumes but does
// not implement: asset custody, collateral custody, claim tokens, the global
// pause gate and the fee treasury. All engine-internal state stays out of
// these collaborators.
package extern

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"desklend-backend/internal/domain/desk"
)

// ErrOperationPaused is returned by every mutating entry point while the
// global gate is closed.
var ErrOperationPaused = errors.New("operation paused")

// AssetLedger moves value-asset units between accounts. Transfers either
// complete in full or fail; a failure aborts the whole engine operation.
type AssetLedger interface {
	TransferIn(ctx context.Context, assetID, from string, amount decimal.Decimal) error
	TransferOut(ctx context.Context, assetID, to string, amount decimal.Decimal) error
}

// CollateralCustody escrows single collateral items. KindOf is queried once
// at config time and trusted thereafter.
type CollateralCustody interface {
	KindOf(ctx context.Context, collectionID string) (desk.CollateralKind, error)
	TakeCustody(ctx context.Context, collectionID, itemID, from string) error
	ReleaseCustody(ctx context.Context, collectionID, itemID, to string) error
}

// ClaimRegistry mints, burns and resolves the transferable receipts that
// decide "who is owner/lender/borrower" at call time. The engine never caches
// holders; it asks OwnerOf on every authorization check.
type ClaimRegistry interface {
	MintDeskOwnership(ctx context.Context, to, deskID string) (string, error)
	MintLenderClaim(ctx context.Context, to, loanID string) (string, error)
	MintBorrowerObligation(ctx context.Context, to, loanID string) (string, error)
	Burn(ctx context.Context, claimID string) error
	OwnerOf(ctx context.Context, claimID string) (string, error)
}

// PauseGate is the global admin kill switch.
type PauseGate interface {
	Paused(ctx context.Context) (bool, error)
}

// Treasury receives origination fees.
type Treasury interface {
	CollectFee(ctx context.Context, assetID, from string, amount decimal.Decimal) error
}

// Collaborators bundles the full boundary surface for usecase wiring.
type Collaborators struct {
	Assets   AssetLedger
	Custody  CollateralCustody
	Claims   ClaimRegistry
	Gate     PauseGate
	Treasury Treasury
}

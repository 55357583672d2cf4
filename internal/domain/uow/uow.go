package uow

import (
	"context"

	"desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/loan"
)

type Repos struct {
	Desks desk.Repository
	Loans loan.Repository
}

// UnitOfWork gives every mutating engine operation all-or-nothing semantics.
// WithinDeskTx locks the desk row up front, so two concurrent originations
// against the same desk serialize and cannot both pass the solvency check,
// and a payment and a liquidation on a loan of that desk cannot interleave.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the desk first, then pass it in
	WithinDeskTx(ctx context.Context, deskID string, fn func(r Repos, d *desk.LendingDesk) error) error
}

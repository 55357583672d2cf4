package uowmock

import (
	"context"
	"errors"

	"desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinDeskTxFn func(ctx context.Context, deskID string, fn func(r uow.Repos, d *desk.LendingDesk) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough builds a UoW whose transactions simply run the body against the
// given repos, handing WithinDeskTx the desk resolved through the desk repo's
// locked getter. Good enough for usecase tests: no real tx semantics needed.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			return fn(repos)
		},
		WithinDeskTxFn: func(ctx context.Context, deskID string, fn func(r uow.Repos, d *desk.LendingDesk) error) error {
			d, err := repos.Desks.GetByDeskIDForUpdate(ctx, deskID)
			if err != nil {
				return err
			}
			return fn(repos, d)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinDeskTx(ctx context.Context, deskID string, fn func(r uow.Repos, d *desk.LendingDesk) error) error {
	if m.WithinDeskTxFn != nil {
		return m.WithinDeskTxFn(ctx, deskID, fn)
	}
	return errUnimplemented
}

package mysql

import (
	"context"

	"gorm.io/gorm"

	"desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := uow.Repos{
			Desks: &DeskRepository{db: tx},
			Loans: &LoanRepository{db: tx},
		}
		return fn(r)
	})
}

func (u *GormUoW) WithinDeskTx(ctx context.Context, deskID string, fn func(r uow.Repos, d *desk.LendingDesk) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := uow.Repos{
			Desks: &DeskRepository{db: tx},
			Loans: &LoanRepository{db: tx},
		}
		// lock the desk row up-front to prevent races
		d, err := r.Desks.GetByDeskIDForUpdate(ctx, deskID)
		if err != nil {
			return err
		}
		return fn(r, d)
	})
}

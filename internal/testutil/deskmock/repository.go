package deskmock

import (
	"context"

	domain "desklend-backend/internal/domain/desk"
)

// Repo is a function-backed mock that satisfies desk.Repository.
// Only fill in the function fields a test needs.
type Repo struct {
	CreateFn               func(ctx context.Context, d *domain.LendingDesk) error
	GetByDeskIDFn          func(ctx context.Context, deskID string) (*domain.LendingDesk, error)
	GetByDeskIDForUpdateFn func(ctx context.Context, deskID string) (*domain.LendingDesk, error)
	SaveFn                 func(ctx context.Context, d *domain.LendingDesk) error
	UpsertConfigFn         func(ctx context.Context, c *domain.LoanConfig) error
	GetConfigFn            func(ctx context.Context, deskNumID uint64, collectionID string) (*domain.LoanConfig, error)
	ListConfigsFn          func(ctx context.Context, deskNumID uint64) ([]domain.LoanConfig, error)
	DeleteConfigFn         func(ctx context.Context, deskNumID uint64, collectionID string) error
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, d *domain.LendingDesk) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByDeskID(ctx context.Context, deskID string) (*domain.LendingDesk, error) {
	if m.GetByDeskIDFn != nil {
		return m.GetByDeskIDFn(ctx, deskID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByDeskIDForUpdate(ctx context.Context, deskID string) (*domain.LendingDesk, error) {
	if m.GetByDeskIDForUpdateFn != nil {
		return m.GetByDeskIDForUpdateFn(ctx, deskID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, d *domain.LendingDesk) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

func (m *Repo) UpsertConfig(ctx context.Context, c *domain.LoanConfig) error {
	if m.UpsertConfigFn != nil {
		return m.UpsertConfigFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetConfig(ctx context.Context, deskNumID uint64, collectionID string) (*domain.LoanConfig, error) {
	if m.GetConfigFn != nil {
		return m.GetConfigFn(ctx, deskNumID, collectionID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListConfigs(ctx context.Context, deskNumID uint64) ([]domain.LoanConfig, error) {
	if m.ListConfigsFn != nil {
		return m.ListConfigsFn(ctx, deskNumID)
	}
	return nil, context.Canceled
}

func (m *Repo) DeleteConfig(ctx context.Context, deskNumID uint64, collectionID string) error {
	if m.DeleteConfigFn != nil {
		return m.DeleteConfigFn(ctx, deskNumID, collectionID)
	}
	return nil
}

package desk

import "context"

type Repository interface {
	Create(ctx context.Context, d *LendingDesk) error
	GetByDeskID(ctx context.Context, deskID string) (*LendingDesk, error)
	GetByDeskIDForUpdate(ctx context.Context, deskID string) (*LendingDesk, error)
	Save(ctx context.Context, d *LendingDesk) error

	UpsertConfig(ctx context.Context, c *LoanConfig) error
	GetConfig(ctx context.Context, deskNumID uint64, collectionID string) (*LoanConfig, error)
	ListConfigs(ctx context.Context, deskNumID uint64) ([]LoanConfig, error)
	DeleteConfig(ctx context.Context, deskNumID uint64, collectionID string) error
}

package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	deskDomain "desklend-backend/internal/domain/desk"
)

type DeskRepository struct{ db *gorm.DB }

func NewDeskRepository(db *gorm.DB) *DeskRepository { return &DeskRepository{db: db} }

func (r *DeskRepository) Create(ctx context.Context, d *deskDomain.LendingDesk) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DeskRepository) Save(ctx context.Context, d *deskDomain.LendingDesk) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DeskRepository) GetByDeskID(ctx context.Context, deskID string) (*deskDomain.LendingDesk, error) {
	var out deskDomain.LendingDesk
	res := r.db.WithContext(ctx).Where("desk_id = ?", deskID).First(&out)
	return &out, res.Error
}

// GetByDeskIDForUpdate locks the desk row for the rest of the transaction;
// every mutating engine operation funnels through this lock.
func (r *DeskRepository) GetByDeskIDForUpdate(ctx context.Context, deskID string) (*deskDomain.LendingDesk, error) {
	var out deskDomain.LendingDesk
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("desk_id = ?", deskID).
		First(&out)
	return &out, res.Error
}

// UpsertConfig inserts or replaces the config for (desk, collection); the
// ON CONFLICT update gives batch upserts last-write-wins semantics.
func (r *DeskRepository) UpsertConfig(ctx context.Context, c *deskDomain.LoanConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "desk_id"}, {Name: "collection_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"collateral_kind",
				"min_amount", "max_amount",
				"min_duration_hours", "max_duration_hours",
				"min_interest_bps", "max_interest_bps",
				"updated_at",
			}),
		}).
		Create(c).Error
}

func (r *DeskRepository) GetConfig(ctx context.Context, deskNumID uint64, collectionID string) (*deskDomain.LoanConfig, error) {
	var out deskDomain.LoanConfig
	res := r.db.WithContext(ctx).
		Where("desk_id = ? AND collection_id = ?", deskNumID, collectionID).
		First(&out)
	return &out, res.Error
}

func (r *DeskRepository) ListConfigs(ctx context.Context, deskNumID uint64) ([]deskDomain.LoanConfig, error) {
	var out []deskDomain.LoanConfig
	res := r.db.WithContext(ctx).
		Where("desk_id = ?", deskNumID).
		Order("collection_id ASC").
		Find(&out)
	return out, res.Error
}

func (r *DeskRepository) DeleteConfig(ctx context.Context, deskNumID uint64, collectionID string) error {
	return r.db.WithContext(ctx).
		Where("desk_id = ? AND collection_id = ?", deskNumID, collectionID).
		Delete(&deskDomain.LoanConfig{}).Error
}

package desk

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	"desklend-backend/internal/domain/uow"
	"desklend-backend/pkg/id"
)

// Usecase covers the desk side of the engine: liquidity accounting
// (create/deposit/withdraw/freeze/dissolve) and loan-config management.
type Usecase struct {
	repo domain.Repository
	uow  uow.UnitOfWork
	ext  extern.Collaborators
	log  *zap.Logger
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, ext extern.Collaborators, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, uow: tx, ext: ext, log: log}
}

func (u *Usecase) gateOpen(ctx context.Context) error {
	paused, err := u.ext.Gate.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return extern.ErrOperationPaused
	}
	return nil
}

// requireOwner resolves the desk-ownership claim to its current holder; the
// claim is transferable, so the check runs on every call.
func (u *Usecase) requireOwner(ctx context.Context, d *domain.LendingDesk, callerID string) error {
	holder, err := u.ext.Claims.OwnerOf(ctx, d.OwnerClaimID)
	if err != nil || holder != callerID {
		return domain.ErrCallerIsNotLendingDeskOwner
	}
	return nil
}

// validateConfig runs the range invariants and verifies the declared
// collateral kind against what custody reports for the collection.
func (u *Usecase) validateConfig(ctx context.Context, c *domain.LoanConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	kind, err := u.ext.Custody.KindOf(ctx, c.CollectionID)
	if err != nil || kind != c.CollateralKind {
		return domain.ErrInvalidCollateralCollection
	}
	return nil
}

func configFromInput(in LoanConfigInput) domain.LoanConfig {
	return domain.LoanConfig{
		CollectionID:     in.CollectionID,
		CollateralKind:   domain.CollateralKind(in.CollateralKind),
		MinAmount:        in.MinAmount,
		MaxAmount:        in.MaxAmount,
		MinDurationHours: in.MinDurationHours,
		MaxDurationHours: in.MaxDurationHours,
		MinInterestBps:   in.MinInterestBps,
		MaxInterestBps:   in.MaxInterestBps,
	}
}

// Create opens a new desk funded with an optional initial deposit and an
// initial config set, and mints the desk-ownership claim to the caller.
func (u *Usecase) Create(ctx context.Context, callerID string, in CreateDeskInput) (*DeskDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}
	if in.ValueAssetID == "" {
		return nil, domain.ErrInvalidLendingDeskID
	}
	if in.InitialDeposit.IsNegative() {
		return nil, domain.ErrAmountIsZero
	}

	var dto *DeskDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		d := &domain.LendingDesk{
			DeskID:        id.NewID32(),
			ValueAssetID:  in.ValueAssetID,
			Balance:       in.InitialDeposit,
			Status:        domain.StatusActive,
			StatusUpdated: time.Now().UTC(),
		}

		// Validate the whole batch before touching storage; any bad entry
		// aborts desk creation.
		configs := make([]domain.LoanConfig, 0, len(in.LoanConfigs))
		for _, entry := range in.LoanConfigs {
			c := configFromInput(entry)
			if err := u.validateConfig(ctx, &c); err != nil {
				return err
			}
			configs = append(configs, c)
		}

		if err := r.Desks.Create(ctx, d); err != nil {
			return err
		}
		for i := range configs {
			configs[i].DeskNumID = d.ID
			if err := r.Desks.UpsertConfig(ctx, &configs[i]); err != nil {
				return err
			}
		}

		if in.InitialDeposit.IsPositive() {
			if err := u.ext.Assets.TransferIn(ctx, d.ValueAssetID, callerID, in.InitialDeposit); err != nil {
				return err
			}
		}

		claimID, err := u.ext.Claims.MintDeskOwnership(ctx, callerID, d.DeskID)
		if err != nil {
			return err
		}
		d.OwnerClaimID = claimID
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}

		dto = deskDTO(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("lending desk created",
		zap.String("desk_id", dto.DeskID),
		zap.String("value_asset_id", dto.ValueAssetID),
		zap.String("balance", dto.Balance.String()))
	return dto, nil
}

// SetLoanConfigs validates and upserts a batch of configs keyed by collateral
// collection. The batch is indivisible; duplicate collections within one
// batch resolve last-write-wins.
func (u *Usecase) SetLoanConfigs(ctx context.Context, callerID, deskID string, entries []LoanConfigInput) error {
	if err := u.gateOpen(ctx); err != nil {
		return err
	}
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		configs := make([]domain.LoanConfig, 0, len(entries))
		for _, entry := range entries {
			c := configFromInput(entry)
			c.DeskNumID = d.ID
			if err := u.validateConfig(ctx, &c); err != nil {
				return err
			}
			configs = append(configs, c)
		}
		// Sequential upserts give last-write-wins for repeated collections.
		for i := range configs {
			if err := r.Desks.UpsertConfig(ctx, &configs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return mapDeskErr(err)
}

func (u *Usecase) RemoveLoanConfig(ctx context.Context, callerID, deskID, collectionID string) error {
	if err := u.gateOpen(ctx); err != nil {
		return err
	}
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		if _, err := r.Desks.GetConfig(ctx, d.ID, collectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUnsupportedCollateralCollection
			}
			return err
		}
		return r.Desks.DeleteConfig(ctx, d.ID, collectionID)
	})
	return mapDeskErr(err)
}

// Deposit credits desk liquidity; the value asset is pulled from the caller.
func (u *Usecase) Deposit(ctx context.Context, callerID, deskID string, amount decimal.Decimal) (*DeskDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrAmountIsZero
	}
	var dto *DeskDTO
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		if err := u.ext.Assets.TransferIn(ctx, d.ValueAssetID, callerID, amount); err != nil {
			return err
		}
		d.Balance = d.Balance.Add(amount)
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}
		dto = deskDTO(d)
		return nil
	})
	if err != nil {
		return nil, mapDeskErr(err)
	}
	u.log.Info("desk deposit",
		zap.String("desk_id", deskID),
		zap.String("amount", amount.String()),
		zap.String("balance", dto.Balance.String()))
	return dto, nil
}

// Withdraw debits desk liquidity; never drives the balance negative.
func (u *Usecase) Withdraw(ctx context.Context, callerID, deskID string, amount decimal.Decimal) (*DeskDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrAmountIsZero
	}
	var dto *DeskDTO
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		if amount.GreaterThan(d.Balance) {
			return domain.ErrInsufficientLendingDeskBalance
		}
		d.Balance = d.Balance.Sub(amount)
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}
		if err := u.ext.Assets.TransferOut(ctx, d.ValueAssetID, callerID, amount); err != nil {
			return err
		}
		dto = deskDTO(d)
		return nil
	})
	if err != nil {
		return nil, mapDeskErr(err)
	}
	u.log.Info("desk withdrawal",
		zap.String("desk_id", deskID),
		zap.String("amount", amount.String()),
		zap.String("balance", dto.Balance.String()))
	return dto, nil
}

// SetState toggles Active <-> Frozen. Freezing requires Active; unfreezing
// requires Frozen.
func (u *Usecase) SetState(ctx context.Context, callerID, deskID string, freeze bool) (*DeskDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}
	var dto *DeskDTO
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		if freeze {
			if d.Status != domain.StatusActive {
				return domain.ErrLendingDeskIsNotActive
			}
			d.Status = domain.StatusFrozen
		} else {
			if d.Status != domain.StatusFrozen {
				return domain.ErrLendingDeskIsNotFrozen
			}
			d.Status = domain.StatusActive
		}
		d.StatusUpdated = time.Now().UTC()
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}
		dto = deskDTO(d)
		return nil
	})
	if err != nil {
		return nil, mapDeskErr(err)
	}
	return dto, nil
}

// Dissolve retires an empty desk permanently and burns the ownership claim.
func (u *Usecase) Dissolve(ctx context.Context, callerID, deskID string) error {
	if err := u.gateOpen(ctx); err != nil {
		return err
	}
	err := u.uow.WithinDeskTx(ctx, deskID, func(r uow.Repos, d *domain.LendingDesk) error {
		if err := u.requireOwner(ctx, d, callerID); err != nil {
			return err
		}
		if !d.Balance.IsZero() {
			return domain.ErrLendingDeskIsNotEmpty
		}
		d.Status = domain.StatusDissolved
		d.StatusUpdated = time.Now().UTC()
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}
		return u.ext.Claims.Burn(ctx, d.OwnerClaimID)
	})
	if err != nil {
		return mapDeskErr(err)
	}
	u.log.Info("desk dissolved", zap.String("desk_id", deskID))
	return nil
}

func (u *Usecase) Get(ctx context.Context, deskID string) (*DeskDTO, error) {
	d, err := u.repo.GetByDeskID(ctx, deskID)
	if err != nil {
		return nil, mapDeskErr(err)
	}
	return deskDTO(d), nil
}

func (u *Usecase) ListLoanConfigs(ctx context.Context, deskID string) ([]LoanConfigDTO, error) {
	d, err := u.repo.GetByDeskID(ctx, deskID)
	if err != nil {
		return nil, mapDeskErr(err)
	}
	configs, err := u.repo.ListConfigs(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanConfigDTO, 0, len(configs))
	for i := range configs {
		out = append(out, *configDTO(&configs[i]))
	}
	return out, nil
}

// mapDeskErr translates storage-level not-found into the engine's identity
// error; everything else passes through untouched.
func mapDeskErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrInvalidLendingDeskID
	}
	return err
}

package loan

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	deskDomain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	domain "desklend-backend/internal/domain/loan"
	"desklend-backend/internal/domain/uow"
	"desklend-backend/pkg/id"
)

// Usecase covers underwriting (origination) and the repayment/default
// lifecycle of flat-fee term loans.
type Usecase struct {
	repo   domain.Repository
	uow    uow.UnitOfWork
	ext    extern.Collaborators
	feeBps uint64
	log    *zap.Logger
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, ext extern.Collaborators, feeBps uint64, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, uow: tx, ext: ext, feeBps: feeBps, log: log}
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

// Originate underwrites and funds a new loan against a single collateral
// item. The whole sequence runs inside one desk-locked transaction so two
// concurrent originations cannot both pass the solvency check.
func (u *Usecase) Originate(ctx context.Context, callerID string, in OriginateInput) (*LoanDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}

	var dto *LoanDTO
	err := u.uow.WithinDeskTx(ctx, in.DeskID, func(r uow.Repos, d *deskDomain.LendingDesk) error {
		if d.Status != deskDomain.StatusActive {
			return deskDomain.ErrLendingDeskIsNotActive
		}

		cfg, err := r.Desks.GetConfig(ctx, d.ID, in.CollectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return deskDomain.ErrUnsupportedCollateralCollection
			}
			return err
		}

		if in.Amount.LessThan(cfg.MinAmount) {
			return domain.ErrLoanAmountTooLow
		}
		if in.Amount.GreaterThan(cfg.MaxAmount) {
			return domain.ErrLoanAmountTooHigh
		}
		if in.DurationHours < cfg.MinDurationHours {
			return domain.ErrLoanDurationTooLow
		}
		if in.DurationHours > cfg.MaxDurationHours {
			return domain.ErrLoanDurationTooHigh
		}
		if in.Amount.GreaterThan(d.Balance) {
			return deskDomain.ErrInsufficientLendingDeskBalance
		}

		// Deterministic rate selection bounded by the caller's ceiling; the
		// ceiling is the front-running guard between quote and execution.
		rate := cfg.PickInterestBps(in.DurationHours)
		if rate > in.MaxInterestBpsAccepted {
			return domain.ErrInterestRateTooHigh
		}

		fee := domain.OriginationFeeFor(in.Amount, u.feeBps)

		d.Balance = d.Balance.Sub(in.Amount)
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}

		if err := u.ext.Custody.TakeCustody(ctx, in.CollectionID, in.CollateralItemID, callerID); err != nil {
			return err
		}
		if fee.IsPositive() {
			if err := u.ext.Treasury.CollectFee(ctx, d.ValueAssetID, callerID, fee); err != nil {
				return err
			}
		}
		if err := u.ext.Assets.TransferOut(ctx, d.ValueAssetID, callerID, in.Amount); err != nil {
			return err
		}

		l := &domain.Loan{
			LoanID:           id.NewID32(),
			DeskID:           d.DeskID,
			CollectionID:     in.CollectionID,
			CollateralItemID: in.CollateralItemID,
			Principal:        in.Amount,
			DurationHours:    in.DurationHours,
			InterestBps:      rate,
			AmountPaidBack:   decimal.Zero,
			OriginationFee:   fee,
			StartTime:        time.Now().UTC(),
			Status:           domain.StatusActive,
			StatusUpdatedAt:  time.Now().UTC(),
		}

		// The lender claim goes to whoever holds desk ownership right now.
		deskOwner, err := u.ext.Claims.OwnerOf(ctx, d.OwnerClaimID)
		if err != nil {
			return deskDomain.ErrCallerIsNotLendingDeskOwner
		}
		if l.LenderClaimID, err = u.ext.Claims.MintLenderClaim(ctx, deskOwner, l.LoanID); err != nil {
			return err
		}
		if l.BorrowerClaimID, err = u.ext.Claims.MintBorrowerObligation(ctx, callerID, l.LoanID); err != nil {
			return err
		}

		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		dto = loanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err, deskDomain.ErrInvalidLendingDeskID)
	}

	u.log.Info("loan originated",
		zap.String("loan_id", dto.LoanID),
		zap.String("desk_id", dto.DeskID),
		zap.String("principal", dto.Principal.String()),
		zap.Uint64("interest_bps", dto.InterestBps),
		zap.String("origination_fee", dto.OriginationFee.String()))
	return dto, nil
}

// AmountDue reports the remaining fixed debt while the loan is active and
// inside its repayment window.
func (u *Usecase) AmountDue(ctx context.Context, loanID string) (*AmountDueDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapLoanErr(err, domain.ErrInvalidLoanID)
	}
	if l.Status != domain.StatusActive {
		return nil, domain.ErrLoanIsNotActive
	}
	if l.PastDue(time.Now().UTC()) {
		return nil, domain.ErrLoanHasDefaulted
	}
	return &AmountDueDTO{
		LoanID:    l.LoanID,
		AmountDue: l.AmountDue(),
		TotalDebt: l.TotalDebt(),
		ExpiresAt: l.ExpiresAt(),
	}, nil
}

// MakePayment accepts a partial or final payment from the borrower-claim
// holder. The final flag must agree with the computed debt: final payments
// must clear it exactly, partial payments must leave some of it.
func (u *Usecase) MakePayment(ctx context.Context, callerID, loanID string, amount decimal.Decimal, final bool) (*PaymentDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, deskDomain.ErrAmountIsZero
	}

	// Resolve the desk so the tx can lock it; the loan is re-read under the
	// lock before any check that matters.
	ref, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapLoanErr(err, domain.ErrInvalidLoanID)
	}

	var dto *PaymentDTO
	err = u.uow.WithinDeskTx(ctx, ref.DeskID, func(r uow.Repos, d *deskDomain.LendingDesk) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return mapLoanErr(err, domain.ErrInvalidLoanID)
		}

		holder, err := u.ext.Claims.OwnerOf(ctx, l.BorrowerClaimID)
		if err != nil || holder != callerID {
			return domain.ErrCallerIsNotBorrower
		}
		if l.Status != domain.StatusActive {
			return domain.ErrLoanIsNotActive
		}
		if l.PastDue(time.Now().UTC()) {
			return domain.ErrLoanHasDefaulted
		}

		due := l.AmountDue()
		if amount.GreaterThan(due) {
			return domain.ErrLoanPaymentExceedsDebt
		}
		if final != amount.Equal(due) {
			return domain.ErrSettlementMismatch
		}

		if err := u.ext.Assets.TransferIn(ctx, d.ValueAssetID, callerID, amount); err != nil {
			return err
		}
		d.Balance = d.Balance.Add(amount)
		if err := r.Desks.Save(ctx, d); err != nil {
			return err
		}

		l.AmountPaidBack = l.AmountPaidBack.Add(amount)
		if final {
			l.Status = domain.StatusResolved
			l.StatusUpdatedAt = time.Now().UTC()
			if err := u.ext.Custody.ReleaseCustody(ctx, l.CollectionID, l.CollateralItemID, callerID); err != nil {
				return err
			}
			if err := u.ext.Claims.Burn(ctx, l.BorrowerClaimID); err != nil {
				return err
			}
			if err := u.ext.Claims.Burn(ctx, l.LenderClaimID); err != nil {
				return err
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &PaymentDTO{
			LoanID:         l.LoanID,
			AmountPaid:     amount,
			AmountPaidBack: l.AmountPaidBack,
			Remaining:      l.AmountDue(),
			Status:         string(l.Status),
		}
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err, deskDomain.ErrInvalidLendingDeskID)
	}

	u.log.Info("loan payment",
		zap.String("loan_id", dto.LoanID),
		zap.String("amount", dto.AmountPaid.String()),
		zap.Bool("final", final),
		zap.String("status", dto.Status))
	return dto, nil
}

// LiquidateDefaulted lets the lender-claim holder resolve a past-due loan by
// taking the collateral. The desk is not credited: the principal is a
// realized loss offset by the collateral recovery.
func (u *Usecase) LiquidateDefaulted(ctx context.Context, callerID, loanID string) (*LoanDTO, error) {
	if err := u.gateOpen(ctx); err != nil {
		return nil, err
	}

	ref, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapLoanErr(err, domain.ErrInvalidLoanID)
	}

	var dto *LoanDTO
	err = u.uow.WithinDeskTx(ctx, ref.DeskID, func(r uow.Repos, d *deskDomain.LendingDesk) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return mapLoanErr(err, domain.ErrInvalidLoanID)
		}

		holder, err := u.ext.Claims.OwnerOf(ctx, l.LenderClaimID)
		if err != nil || holder != callerID {
			return domain.ErrCallerIsNotLender
		}
		if l.Status != domain.StatusActive {
			return domain.ErrLoanIsNotActive
		}
		if !l.PastDue(time.Now().UTC()) {
			return domain.ErrLoanHasNotDefaulted
		}

		l.Status = domain.StatusDefaulted
		l.StatusUpdatedAt = time.Now().UTC()
		if err := u.ext.Custody.ReleaseCustody(ctx, l.CollectionID, l.CollateralItemID, callerID); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = loanDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLoanErr(err, deskDomain.ErrInvalidLendingDeskID)
	}

	u.log.Info("loan defaulted",
		zap.String("loan_id", dto.LoanID),
		zap.String("desk_id", dto.DeskID),
		zap.String("principal", dto.Principal.String()))
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapLoanErr(err, domain.ErrInvalidLoanID)
	}
	return loanDTO(l), nil
}

// mapLoanErr rewrites storage not-found as the given identity error and
// leaves every other error untouched.
func mapLoanErr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

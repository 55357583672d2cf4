package desk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	"desklend-backend/internal/domain/uow"
	"desklend-backend/internal/infrastructure/memledger"
	"desklend-backend/internal/testutil/deskmock"
	"desklend-backend/internal/testutil/loanmock"
	"desklend-backend/internal/testutil/uowmock"
	"desklend-backend/pkg/id"
)

const (
	assetID      = "usdc"
	ownerID      = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	strangerID   = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	collectionID = "cccccccccccccccccccccccccccccccc"
)

// deskStore is a map-backed desk.Repository used through the deskmock
// function hooks; close enough to the real repo for usecase behavior.
type deskStore struct {
	desks   map[string]*domain.LendingDesk
	configs map[uint64]map[string]domain.LoanConfig
	nextID  uint64
}

func newDeskStore() *deskStore {
	return &deskStore{
		desks:   make(map[string]*domain.LendingDesk),
		configs: make(map[uint64]map[string]domain.LoanConfig),
	}
}

func (s *deskStore) get(deskID string) (*domain.LendingDesk, error) {
	d, ok := s.desks[deskID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *deskStore) repo() *deskmock.Repo {
	return &deskmock.Repo{
		CreateFn: func(_ context.Context, d *domain.LendingDesk) error {
			s.nextID++
			d.ID = s.nextID
			cp := *d
			s.desks[d.DeskID] = &cp
			return nil
		},
		GetByDeskIDFn:          func(_ context.Context, deskID string) (*domain.LendingDesk, error) { return s.get(deskID) },
		GetByDeskIDForUpdateFn: func(_ context.Context, deskID string) (*domain.LendingDesk, error) { return s.get(deskID) },
		SaveFn: func(_ context.Context, d *domain.LendingDesk) error {
			cp := *d
			s.desks[d.DeskID] = &cp
			return nil
		},
		UpsertConfigFn: func(_ context.Context, c *domain.LoanConfig) error {
			if s.configs[c.DeskNumID] == nil {
				s.configs[c.DeskNumID] = make(map[string]domain.LoanConfig)
			}
			s.configs[c.DeskNumID][c.CollectionID] = *c
			return nil
		},
		GetConfigFn: func(_ context.Context, deskNumID uint64, collectionID string) (*domain.LoanConfig, error) {
			c, ok := s.configs[deskNumID][collectionID]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &c, nil
		},
		ListConfigsFn: func(_ context.Context, deskNumID uint64) ([]domain.LoanConfig, error) {
			out := make([]domain.LoanConfig, 0, len(s.configs[deskNumID]))
			for _, c := range s.configs[deskNumID] {
				out = append(out, c)
			}
			return out, nil
		},
		DeleteConfigFn: func(_ context.Context, deskNumID uint64, collectionID string) error {
			delete(s.configs[deskNumID], collectionID)
			return nil
		},
	}
}

type fixture struct {
	uc      *Usecase
	store   *deskStore
	ledger  *memledger.AssetLedger
	custody *memledger.Custody
	claims  *memledger.Claims
	gate    *memledger.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   newDeskStore(),
		ledger:  memledger.NewAssetLedger(),
		custody: memledger.NewCustody(),
		claims:  memledger.NewClaims(),
		gate:    memledger.NewGate(),
	}
	f.custody.RegisterCollection(collectionID, domain.KindSingleUnit)
	repo := f.store.repo()
	ext := extern.Collaborators{
		Assets:   f.ledger,
		Custody:  f.custody,
		Claims:   f.claims,
		Gate:     f.gate,
		Treasury: memledger.NewTreasury(f.ledger, "treasury"),
	}
	f.uc = NewUsecase(repo, uowmock.Passthrough(uow.Repos{Desks: repo, Loans: &loanmock.Repo{}}), ext, nil)
	return f
}

// seedDesk creates a desk directly in the store with a freshly minted
// ownership claim held by owner.
func (f *fixture) seedDesk(t *testing.T, owner string, balance int64) string {
	t.Helper()
	claimID, err := f.claims.MintDeskOwnership(context.Background(), owner, "")
	if err != nil {
		t.Fatalf("mint ownership: %v", err)
	}
	d := &domain.LendingDesk{
		DeskID:        id.NewID32(),
		OwnerClaimID:  claimID,
		ValueAssetID:  assetID,
		Balance:       decimal.NewFromInt(balance),
		Status:        domain.StatusActive,
		StatusUpdated: time.Now().UTC(),
	}
	if err := f.store.repo().Create(context.Background(), d); err != nil {
		t.Fatalf("seed desk: %v", err)
	}
	return d.DeskID
}

func validInput() LoanConfigInput {
	return LoanConfigInput{
		CollectionID:     collectionID,
		CollateralKind:   string(domain.KindSingleUnit),
		MinAmount:        decimal.NewFromInt(1_000),
		MaxAmount:        decimal.NewFromInt(100_000),
		MinDurationHours: 24,
		MaxDurationHours: 720,
		MinInterestBps:   200,
		MaxInterestBps:   1500,
	}
}

func TestCreate_WithDepositAndConfigs(t *testing.T) {
	f := newFixture(t)
	f.ledger.Credit(assetID, ownerID, decimal.NewFromInt(10_000))

	dto, err := f.uc.Create(context.Background(), ownerID, CreateDeskInput{
		ValueAssetID:   assetID,
		InitialDeposit: decimal.NewFromInt(10_000),
		LoanConfigs:    []LoanConfigInput{validInput()},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(dto.DeskID) != 32 {
		t.Fatalf("DeskID length: %d", len(dto.DeskID))
	}
	if !dto.Balance.Equal(decimal.NewFromInt(10_000)) {
		t.Fatalf("balance = %s", dto.Balance)
	}
	holder, err := f.claims.OwnerOf(context.Background(), dto.OwnerClaimID)
	if err != nil || holder != ownerID {
		t.Fatalf("ownership claim holder = %q err = %v", holder, err)
	}
	configs, err := f.uc.ListLoanConfigs(context.Background(), dto.DeskID)
	if err != nil || len(configs) != 1 {
		t.Fatalf("configs = %v err = %v", configs, err)
	}
	// deposit pulled from the owner
	if got := f.ledger.BalanceOf(assetID, ownerID); !got.IsZero() {
		t.Fatalf("owner ledger balance = %s, want 0", got)
	}
}

func TestCreate_InvalidConfigAbortsDesk(t *testing.T) {
	f := newFixture(t)
	bad := validInput()
	bad.MinInterestBps = 0
	_, err := f.uc.Create(context.Background(), ownerID, CreateDeskInput{
		ValueAssetID: assetID,
		LoanConfigs:  []LoanConfigInput{bad},
	})
	if !errors.Is(err, domain.ErrMinInterestIsZero) {
		t.Fatalf("want ErrMinInterestIsZero, got %v", err)
	}
}

func TestDeposit_CreditsBalance(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 10_000)
	f.ledger.Credit(assetID, ownerID, decimal.NewFromInt(1_000))

	dto, err := f.uc.Deposit(context.Background(), ownerID, deskID, decimal.NewFromInt(1_000))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if want := decimal.NewFromInt(11_000); !dto.Balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", dto.Balance, want)
	}
}

func TestDeposit_ZeroAmount(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)
	if _, err := f.uc.Deposit(context.Background(), ownerID, deskID, decimal.Zero); !errors.Is(err, domain.ErrAmountIsZero) {
		t.Fatalf("want ErrAmountIsZero, got %v", err)
	}
}

func TestDeposit_UnknownDesk(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Deposit(context.Background(), ownerID, id.NewID32(), decimal.NewFromInt(5))
	if !errors.Is(err, domain.ErrInvalidLendingDeskID) {
		t.Fatalf("want ErrInvalidLendingDeskID, got %v", err)
	}
}

func TestDeposit_NotOwner(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)
	_, err := f.uc.Deposit(context.Background(), strangerID, deskID, decimal.NewFromInt(5))
	if !errors.Is(err, domain.ErrCallerIsNotLendingDeskOwner) {
		t.Fatalf("want ErrCallerIsNotLendingDeskOwner, got %v", err)
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 10_000)

	_, err := f.uc.Withdraw(context.Background(), ownerID, deskID, decimal.NewFromInt(20_000))
	if !errors.Is(err, domain.ErrInsufficientLendingDeskBalance) {
		t.Fatalf("want ErrInsufficientLendingDeskBalance, got %v", err)
	}
	// balance untouched
	dto, err := f.uc.Get(context.Background(), deskID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := decimal.NewFromInt(10_000); !dto.Balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", dto.Balance, want)
	}
}

func TestWithdraw_OK(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 10_000)
	// engine pool must actually hold the funds being paid out
	f.ledger.Credit(assetID, memledger.EngineAccount, decimal.NewFromInt(10_000))

	dto, err := f.uc.Withdraw(context.Background(), ownerID, deskID, decimal.NewFromInt(4_000))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if want := decimal.NewFromInt(6_000); !dto.Balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", dto.Balance, want)
	}
	if got := f.ledger.BalanceOf(assetID, ownerID); !got.Equal(decimal.NewFromInt(4_000)) {
		t.Fatalf("owner received %s, want 4000", got)
	}
}

func TestSetState_Guards(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)
	ctx := context.Background()

	// unfreeze an active desk
	if _, err := f.uc.SetState(ctx, ownerID, deskID, false); !errors.Is(err, domain.ErrLendingDeskIsNotFrozen) {
		t.Fatalf("unfreeze active: want ErrLendingDeskIsNotFrozen, got %v", err)
	}
	// freeze
	dto, err := f.uc.SetState(ctx, ownerID, deskID, true)
	if err != nil || dto.Status != string(domain.StatusFrozen) {
		t.Fatalf("freeze: dto=%+v err=%v", dto, err)
	}
	// freeze again
	if _, err := f.uc.SetState(ctx, ownerID, deskID, true); !errors.Is(err, domain.ErrLendingDeskIsNotActive) {
		t.Fatalf("freeze frozen: want ErrLendingDeskIsNotActive, got %v", err)
	}
	// unfreeze back
	dto, err = f.uc.SetState(ctx, ownerID, deskID, false)
	if err != nil || dto.Status != string(domain.StatusActive) {
		t.Fatalf("unfreeze: dto=%+v err=%v", dto, err)
	}
}

func TestDissolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nonEmpty := f.seedDesk(t, ownerID, 50)
	if err := f.uc.Dissolve(ctx, ownerID, nonEmpty); !errors.Is(err, domain.ErrLendingDeskIsNotEmpty) {
		t.Fatalf("want ErrLendingDeskIsNotEmpty, got %v", err)
	}

	empty := f.seedDesk(t, ownerID, 0)
	if err := f.uc.Dissolve(ctx, ownerID, empty); err != nil {
		t.Fatalf("Dissolve: %v", err)
	}
	dto, err := f.uc.Get(ctx, empty)
	if err != nil || dto.Status != string(domain.StatusDissolved) {
		t.Fatalf("status=%v err=%v", dto, err)
	}
	// ownership claim burned: nobody can act as owner anymore
	if _, err := f.uc.Deposit(ctx, ownerID, empty, decimal.NewFromInt(1)); !errors.Is(err, domain.ErrCallerIsNotLendingDeskOwner) {
		t.Fatalf("deposit after dissolve: want ErrCallerIsNotLendingDeskOwner, got %v", err)
	}
}

func TestSetLoanConfigs_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)

	first := validInput()
	second := validInput()
	second.MaxInterestBps = 900

	err := f.uc.SetLoanConfigs(context.Background(), ownerID, deskID, []LoanConfigInput{first, second})
	if err != nil {
		t.Fatalf("SetLoanConfigs: %v", err)
	}
	configs, err := f.uc.ListLoanConfigs(context.Background(), deskID)
	if err != nil || len(configs) != 1 {
		t.Fatalf("configs=%v err=%v", configs, err)
	}
	if configs[0].MaxInterestBps != 900 {
		t.Fatalf("max interest = %d, want 900 (last write wins)", configs[0].MaxInterestBps)
	}
}

func TestSetLoanConfigs_BatchAbortsOnInvalidEntry(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)

	good := validInput()
	bad := validInput()
	bad.MaxAmount = decimal.NewFromInt(1) // below min

	err := f.uc.SetLoanConfigs(context.Background(), ownerID, deskID, []LoanConfigInput{good, bad})
	if !errors.Is(err, domain.ErrMaxAmountIsLessThanMin) {
		t.Fatalf("want ErrMaxAmountIsLessThanMin, got %v", err)
	}
	configs, err := f.uc.ListLoanConfigs(context.Background(), deskID)
	if err != nil {
		t.Fatalf("ListLoanConfigs: %v", err)
	}
	if len(configs) != 0 {
		t.Fatalf("partial application: %d configs stored", len(configs))
	}
}

func TestSetLoanConfigs_KindMismatch(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)

	in := validInput()
	in.CollateralKind = string(domain.KindMultiUnit) // custody says single_unit

	err := f.uc.SetLoanConfigs(context.Background(), ownerID, deskID, []LoanConfigInput{in})
	if !errors.Is(err, domain.ErrInvalidCollateralCollection) {
		t.Fatalf("want ErrInvalidCollateralCollection, got %v", err)
	}
}

func TestRemoveLoanConfig(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 0)
	ctx := context.Background()

	if err := f.uc.RemoveLoanConfig(ctx, ownerID, deskID, collectionID); !errors.Is(err, domain.ErrUnsupportedCollateralCollection) {
		t.Fatalf("remove missing: want ErrUnsupportedCollateralCollection, got %v", err)
	}

	if err := f.uc.SetLoanConfigs(ctx, ownerID, deskID, []LoanConfigInput{validInput()}); err != nil {
		t.Fatalf("SetLoanConfigs: %v", err)
	}
	if err := f.uc.RemoveLoanConfig(ctx, ownerID, deskID, collectionID); err != nil {
		t.Fatalf("RemoveLoanConfig: %v", err)
	}
	configs, _ := f.uc.ListLoanConfigs(ctx, deskID)
	if len(configs) != 0 {
		t.Fatalf("config not removed")
	}
}

func TestPausedGate_BlocksMutations(t *testing.T) {
	f := newFixture(t)
	deskID := f.seedDesk(t, ownerID, 100)
	f.gate.SetPaused(true)
	ctx := context.Background()

	if _, err := f.uc.Deposit(ctx, ownerID, deskID, decimal.NewFromInt(1)); !errors.Is(err, extern.ErrOperationPaused) {
		t.Fatalf("deposit: want ErrOperationPaused, got %v", err)
	}
	if _, err := f.uc.Withdraw(ctx, ownerID, deskID, decimal.NewFromInt(1)); !errors.Is(err, extern.ErrOperationPaused) {
		t.Fatalf("withdraw: want ErrOperationPaused, got %v", err)
	}
	if err := f.uc.SetLoanConfigs(ctx, ownerID, deskID, []LoanConfigInput{validInput()}); !errors.Is(err, extern.ErrOperationPaused) {
		t.Fatalf("set configs: want ErrOperationPaused, got %v", err)
	}
	if err := f.uc.Dissolve(ctx, ownerID, deskID); !errors.Is(err, extern.ErrOperationPaused) {
		t.Fatalf("dissolve: want ErrOperationPaused, got %v", err)
	}
}

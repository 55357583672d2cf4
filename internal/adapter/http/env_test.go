package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	deskDomain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	loanDomain "desklend-backend/internal/domain/loan"
	"desklend-backend/internal/domain/uow"
	"desklend-backend/internal/infrastructure/memledger"
	"desklend-backend/internal/testutil/deskmock"
	"desklend-backend/internal/testutil/loanmock"
	"desklend-backend/internal/testutil/uowmock"
	deskuc "desklend-backend/internal/usecase/desk"
	loanuc "desklend-backend/internal/usecase/loan"
)

const (
	testAsset      = "usdc"
	testOwner      = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testBorrower   = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testCollection = "cccccccccccccccccccccccccccccccc"
	testItem       = "item-1"
)

// env wires both handlers over real usecases backed by in-memory storage and
// collaborators, so handler tests exercise the full request path minus
// MySQL/Redis.
type env struct {
	e       *echo.Echo
	desks   map[string]*deskDomain.LendingDesk
	configs map[uint64]map[string]deskDomain.LoanConfig
	loans   map[string]*loanDomain.Loan
	ledger  *memledger.AssetLedger
	custody *memledger.Custody
	claims  *memledger.Claims
	gate    *memledger.Gate
	nextID  uint64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	v := &env{
		desks:   make(map[string]*deskDomain.LendingDesk),
		configs: make(map[uint64]map[string]deskDomain.LoanConfig),
		loans:   make(map[string]*loanDomain.Loan),
		ledger:  memledger.NewAssetLedger(),
		custody: memledger.NewCustody(),
		claims:  memledger.NewClaims(),
		gate:    memledger.NewGate(),
	}

	getDesk := func(_ context.Context, deskID string) (*deskDomain.LendingDesk, error) {
		d, ok := v.desks[deskID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *d
		return &cp, nil
	}
	deskRepo := &deskmock.Repo{
		CreateFn: func(_ context.Context, d *deskDomain.LendingDesk) error {
			v.nextID++
			d.ID = v.nextID
			cp := *d
			v.desks[d.DeskID] = &cp
			return nil
		},
		GetByDeskIDFn:          getDesk,
		GetByDeskIDForUpdateFn: getDesk,
		SaveFn: func(_ context.Context, d *deskDomain.LendingDesk) error {
			cp := *d
			v.desks[d.DeskID] = &cp
			return nil
		},
		UpsertConfigFn: func(_ context.Context, c *deskDomain.LoanConfig) error {
			if v.configs[c.DeskNumID] == nil {
				v.configs[c.DeskNumID] = make(map[string]deskDomain.LoanConfig)
			}
			v.configs[c.DeskNumID][c.CollectionID] = *c
			return nil
		},
		GetConfigFn: func(_ context.Context, deskNumID uint64, collectionID string) (*deskDomain.LoanConfig, error) {
			c, ok := v.configs[deskNumID][collectionID]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &c, nil
		},
		ListConfigsFn: func(_ context.Context, deskNumID uint64) ([]deskDomain.LoanConfig, error) {
			out := make([]deskDomain.LoanConfig, 0, len(v.configs[deskNumID]))
			for _, c := range v.configs[deskNumID] {
				out = append(out, c)
			}
			return out, nil
		},
		DeleteConfigFn: func(_ context.Context, deskNumID uint64, collectionID string) error {
			delete(v.configs[deskNumID], collectionID)
			return nil
		},
	}

	getLoan := func(_ context.Context, loanID string) (*loanDomain.Loan, error) {
		l, ok := v.loans[loanID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *l
		return &cp, nil
	}
	loanRepo := &loanmock.Repo{
		CreateFn: func(_ context.Context, l *loanDomain.Loan) error {
			v.nextID++
			l.ID = v.nextID
			cp := *l
			v.loans[l.LoanID] = &cp
			return nil
		},
		GetByLoanIDFn:          getLoan,
		GetByLoanIDForUpdateFn: getLoan,
		SaveFn: func(_ context.Context, l *loanDomain.Loan) error {
			cp := *l
			v.loans[l.LoanID] = &cp
			return nil
		},
	}

	ext := extern.Collaborators{
		Assets:   v.ledger,
		Custody:  v.custody,
		Claims:   v.claims,
		Gate:     v.gate,
		Treasury: memledger.NewTreasury(v.ledger, "treasury"),
	}
	tx := uowmock.Passthrough(uow.Repos{Desks: deskRepo, Loans: loanRepo})
	deskH := NewDeskHandler(deskuc.NewUsecase(deskRepo, tx, ext, nil))
	loanH := NewLoanHandler(loanuc.NewUsecase(loanRepo, tx, ext, 200, nil))

	e := echo.New()
	e.Validator = NewValidator()
	e.POST("/desks", deskH.CreateDesk)
	e.GET("/desks/:desk_id", deskH.GetDesk)
	e.POST("/desks/:desk_id/deposit", deskH.Deposit)
	e.POST("/desks/:desk_id/withdraw", deskH.Withdraw)
	e.PATCH("/desks/:desk_id/state", deskH.SetState)
	e.DELETE("/desks/:desk_id", deskH.Dissolve)
	e.PUT("/desks/:desk_id/loan-configs", deskH.PutLoanConfigs)
	e.GET("/desks/:desk_id/loan-configs", deskH.ListLoanConfigs)
	e.DELETE("/desks/:desk_id/loan-configs/:collection_id", deskH.DeleteLoanConfig)
	e.POST("/loans", loanH.Originate)
	e.GET("/loans/:loan_id", loanH.GetLoan)
	e.GET("/loans/:loan_id/amount-due", loanH.AmountDue)
	e.POST("/loans/:loan_id/payments", loanH.MakePayment)
	e.POST("/loans/:loan_id/liquidate", loanH.Liquidate)
	v.e = e

	v.custody.RegisterCollection(testCollection, deskDomain.KindSingleUnit)
	v.custody.GrantItem(testCollection, testItem, testBorrower)
	v.ledger.Credit(testAsset, testOwner, decimal.NewFromInt(1_000_000))
	v.ledger.Credit(testAsset, testBorrower, decimal.NewFromInt(100_000))
	return v
}

func (v *env) do(t *testing.T, method, path, caller, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if caller != "" {
		req.Header.Set("Ax-Caller-Id", caller)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

// seedDesk creates a desk through the API and returns its public id.
func (v *env) seedDesk(t *testing.T, deposit string) string {
	t.Helper()
	body := `{
		"value_asset_id": "` + testAsset + `",
		"initial_deposit": "` + deposit + `",
		"loan_configs": [{
			"collection_id": "` + testCollection + `",
			"collateral_kind": "single_unit",
			"min_amount": "1000",
			"max_amount": "500000",
			"min_duration_hours": 24,
			"max_duration_hours": 8760,
			"min_interest_bps": 500,
			"max_interest_bps": 500
		}]
	}`
	rec, out := v.do(t, http.MethodPost, "/desks", testOwner, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed desk: status %d body %s", rec.Code, rec.Body.String())
	}
	deskID, _ := out["desk_id"].(string)
	if deskID == "" {
		t.Fatalf("seed desk: no desk_id in %v", out)
	}
	return deskID
}

// seedLoan originates a loan against the seeded desk and returns the loan id.
func (v *env) seedLoan(t *testing.T, deskID string) string {
	t.Helper()
	body := `{
		"desk_id": "` + deskID + `",
		"collection_id": "` + testCollection + `",
		"collateral_item_id": "` + testItem + `",
		"amount": "100000",
		"duration_hours": 8760,
		"max_interest_bps_accepted": 10000
	}`
	rec, out := v.do(t, http.MethodPost, "/loans", testBorrower, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed loan: status %d body %s", rec.Code, rec.Body.String())
	}
	loanID, _ := out["loan_id"].(string)
	if loanID == "" {
		t.Fatalf("seed loan: no loan_id in %v", out)
	}
	return loanID
}

// backdateLoan shifts a stored loan's start so it reads as past due.
func (v *env) backdateLoan(loanID string, by time.Duration) {
	l := v.loans[loanID]
	l.StartTime = l.StartTime.Add(-by)
}

// Package memledger holds in-memory implementations of the engine's external
// collaborators. They back local development and tests; production wiring
// replaces them with real custody/token services.
package memledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"desklend-backend/internal/domain/desk"
)

var (
	ErrInsufficientBalance = errors.New("insufficient account balance")
	ErrUnknownCollection   = errors.New("unknown collateral collection")
	ErrItemNotHeld         = errors.New("collateral item not held by owner")
	ErrUnknownClaim        = errors.New("unknown claim id")
)

// EngineAccount is the pool account all TransferIn/TransferOut calls move
// value against.
const EngineAccount = "__engine__"

// AssetLedger is a mutex-guarded balance map per asset.
type AssetLedger struct {
	mu       sync.Mutex
	balances map[string]map[string]decimal.Decimal // assetID -> account -> balance
}

func NewAssetLedger() *AssetLedger {
	return &AssetLedger{balances: make(map[string]map[string]decimal.Decimal)}
}

// Credit seeds an account balance; test/dev helper.
func (l *AssetLedger) Credit(assetID, account string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(assetID, account, amount)
}

func (l *AssetLedger) BalanceOf(assetID, account string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[assetID][account]
}

func (l *AssetLedger) add(assetID, account string, amount decimal.Decimal) {
	if l.balances[assetID] == nil {
		l.balances[assetID] = make(map[string]decimal.Decimal)
	}
	l.balances[assetID][account] = l.balances[assetID][account].Add(amount)
}

func (l *AssetLedger) move(assetID, from, to string, amount decimal.Decimal) error {
	if l.balances[assetID][from].LessThan(amount) {
		return fmt.Errorf("%w: %s/%s", ErrInsufficientBalance, assetID, from)
	}
	l.balances[assetID][from] = l.balances[assetID][from].Sub(amount)
	l.add(assetID, to, amount)
	return nil
}

func (l *AssetLedger) TransferIn(_ context.Context, assetID, from string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(assetID, from, EngineAccount, amount)
}

func (l *AssetLedger) TransferOut(_ context.Context, assetID, to string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(assetID, EngineAccount, to, amount)
}

// Custody escrows single collateral items and answers collection-kind
// queries.
type Custody struct {
	mu       sync.Mutex
	kinds    map[string]desk.CollateralKind
	holdings map[string]string // collectionID/itemID -> current owner
}

func NewCustody() *Custody {
	return &Custody{
		kinds:    make(map[string]desk.CollateralKind),
		holdings: make(map[string]string),
	}
}

func itemKey(collectionID, itemID string) string { return collectionID + "/" + itemID }

// RegisterCollection declares a collection and its kind; test/dev helper.
func (c *Custody) RegisterCollection(collectionID string, kind desk.CollateralKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds[collectionID] = kind
}

// GrantItem assigns an item to an owner; test/dev helper.
func (c *Custody) GrantItem(collectionID, itemID, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdings[itemKey(collectionID, itemID)] = owner
}

func (c *Custody) KindOf(_ context.Context, collectionID string) (desk.CollateralKind, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kind, ok := c.kinds[collectionID]
	if !ok {
		return "", ErrUnknownCollection
	}
	return kind, nil
}

func (c *Custody) TakeCustody(_ context.Context, collectionID, itemID, from string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := itemKey(collectionID, itemID)
	if c.holdings[key] != from {
		return ErrItemNotHeld
	}
	c.holdings[key] = EngineAccount
	return nil
}

func (c *Custody) ReleaseCustody(_ context.Context, collectionID, itemID, to string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := itemKey(collectionID, itemID)
	if c.holdings[key] != EngineAccount {
		return ErrItemNotHeld
	}
	c.holdings[key] = to
	return nil
}

func (c *Custody) HolderOf(collectionID, itemID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holdings[itemKey(collectionID, itemID)]
}

// Claims is an in-memory claim-token registry. Claim ids are uuids; burning
// a claim removes it, so OwnerOf on a burned claim fails.
type Claims struct {
	mu      sync.Mutex
	holders map[string]string // claimID -> holder
}

func NewClaims() *Claims {
	return &Claims{holders: make(map[string]string)}
}

func (r *Claims) mint(to string) string {
	claimID := uuid.NewString()
	r.holders[claimID] = to
	return claimID
}

func (r *Claims) MintDeskOwnership(_ context.Context, to, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mint(to), nil
}

func (r *Claims) MintLenderClaim(_ context.Context, to, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mint(to), nil
}

func (r *Claims) MintBorrowerObligation(_ context.Context, to, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mint(to), nil
}

func (r *Claims) Burn(_ context.Context, claimID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holders[claimID]; !ok {
		return ErrUnknownClaim
	}
	delete(r.holders, claimID)
	return nil
}

func (r *Claims) OwnerOf(_ context.Context, claimID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	holder, ok := r.holders[claimID]
	if !ok {
		return "", ErrUnknownClaim
	}
	return holder, nil
}

// Transfer moves a claim to a new holder; claims are transferable tokens.
func (r *Claims) Transfer(claimID, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holders[claimID]; !ok {
		return ErrUnknownClaim
	}
	r.holders[claimID] = to
	return nil
}

// Gate is the global pause switch.
type Gate struct {
	mu     sync.Mutex
	paused bool
}

func NewGate() *Gate { return &Gate{} }

func (g *Gate) SetPaused(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = paused
}

func (g *Gate) Paused(_ context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused, nil
}

// Treasury debits origination fees from the payer into a named treasury
// account on the shared ledger.
type Treasury struct {
	ledger  *AssetLedger
	account string
}

func NewTreasury(ledger *AssetLedger, account string) *Treasury {
	return &Treasury{ledger: ledger, account: account}
}

func (t *Treasury) CollectFee(_ context.Context, assetID, from string, amount decimal.Decimal) error {
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	return t.ledger.move(assetID, from, t.account, amount)
}

func (t *Treasury) Collected(assetID string) decimal.Decimal {
	return t.ledger.BalanceOf(assetID, t.account)
}

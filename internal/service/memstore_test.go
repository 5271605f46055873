package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memState is one snapshot of the ledger tables.
type memState struct {
	accounts map[uuid.UUID]domain.Account
	entries  []domain.LedgerEntry
}

func (s *memState) clone() *memState {
	c := &memState{
		accounts: make(map[uuid.UUID]domain.Account, len(s.accounts)),
		entries:  append([]domain.LedgerEntry(nil), s.entries...),
	}
	for id, a := range s.accounts {
		c.accounts[id] = a
	}
	return c
}

func (s *memState) byTrader(traderID, currency string) *domain.Account {
	for _, a := range s.accounts {
		if a.TraderID == traderID && a.Currency == currency {
			a := a
			return &a
		}
	}
	return nil
}

// memStore is a serialisable in-memory LedgerStore. Transactions run one at
// a time and publish their snapshot on commit only.
type memStore struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *memState
	failOn    map[string]error
	locks     []string
}

func newMemStore() *memStore {
	return &memStore{
		committed: &memState{accounts: map[uuid.UUID]domain.Account{}},
		failOn:    map[string]error{},
	}
}

type memTx struct {
	pgx.Tx
	store *memStore
	state *memState
	done  bool
}

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.mu.RLock()
	state := s.committed.clone()
	s.mu.RUnlock()
	return &memTx{store: s, state: state}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func stateOf(tx pgx.Tx) *memState {
	return tx.(*memTx).state
}

func (s *memStore) read() *memState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.clone()
}

// lockRow records a row lock taken with FOR UPDATE.
func (s *memStore) lockRow(row string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, row)
}

// lockTrace returns and clears the recorded row locks.
func (s *memStore) lockTrace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.locks
	s.locks = nil
	return out
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

// seed inserts an account outside any transaction.
func (s *memStore) seed(traderID string, balance, frozen string) *domain.Account {
	a := domain.Account{
		ID:           uuid.New(),
		TraderID:     traderID,
		Currency:     "USDT",
		Address:      "0x" + traderID,
		Balance:      decimal.RequireFromString(balance),
		Frozen:       decimal.RequireFromString(frozen),
		PendingSweep: decimal.Zero,
		SweepStatus:  domain.SweepIdle,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	s.mu.Lock()
	s.committed.accounts[a.ID] = a
	s.mu.Unlock()
	return &a
}

// update mutates a committed account outside any transaction.
func (s *memStore) update(traderID string, fn func(a *domain.Account)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.committed.accounts {
		if a.TraderID == traderID {
			fn(&a)
			s.committed.accounts[id] = a
			return
		}
	}
}

func (s *memStore) account(traderID string) *domain.Account {
	return s.read().byTrader(traderID, "USDT")
}

func (s *memStore) entries() []domain.LedgerEntry {
	return s.read().entries
}

// --- ports.AccountRepository ---

type memAccountRepo struct{ store *memStore }

func (r memAccountRepo) Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error {
	st := stateOf(tx)
	if st.byTrader(account.TraderID, account.Currency) != nil {
		return errors.New("duplicate account")
	}
	st.accounts[account.ID] = *account
	return nil
}

func (r memAccountRepo) GetByTrader(ctx context.Context, traderID, currency string) (*domain.Account, error) {
	if err := r.store.fail("GetByTrader"); err != nil {
		return nil, err
	}
	return r.store.read().byTrader(traderID, currency), nil
}

func (r memAccountRepo) GetByTraderForUpdate(ctx context.Context, tx pgx.Tx, traderID, currency string) (*domain.Account, error) {
	r.store.lockRow("account:" + traderID)
	return stateOf(tx).byTrader(traderID, currency), nil
}

func (r memAccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, deltaBalance, deltaFrozen decimal.Decimal) (*domain.Account, error) {
	if err := r.store.fail("ApplyDelta"); err != nil {
		return nil, err
	}
	st := stateOf(tx)
	a, ok := st.accounts[id]
	if !ok {
		return nil, errors.New("account not found")
	}
	a.Balance = a.Balance.Add(deltaBalance)
	a.Frozen = a.Frozen.Add(deltaFrozen)
	if a.Balance.IsNegative() || a.Frozen.IsNegative() {
		return nil, domain.ErrBalanceConstraint
	}
	a.UpdatedAt = time.Now().UTC()
	st.accounts[id] = a
	return &a, nil
}

func (r memAccountRepo) UpdateSweep(ctx context.Context, tx pgx.Tx, id uuid.UUID, u ports.SweepUpdate) error {
	if err := r.store.fail("UpdateSweep"); err != nil {
		return err
	}
	st := stateOf(tx)
	a, ok := st.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	a.SweepStatus = u.Status
	a.SweepTxHash = u.TxHash
	a.SweepStartedAt = u.StartedAt
	a.PendingSweep = a.PendingSweep.Add(u.PendingSweepDelta)
	if a.PendingSweep.IsNegative() {
		return domain.ErrBalanceConstraint
	}
	st.accounts[id] = a
	return nil
}

func (r memAccountRepo) ListManaged(ctx context.Context, currency, custodyTraderID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range r.store.read().accounts {
		if a.Currency == currency && a.TraderID != custodyTraderID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TraderID < out[j].TraderID })
	return out, nil
}

// --- ports.LedgerRepository ---

type memLedgerRepo struct{ store *memStore }

func (r memLedgerRepo) Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	if err := r.store.fail("Append:" + string(entry.Kind)); err != nil {
		return err
	}
	st := stateOf(tx)
	if entry.TxHash != nil {
		for _, e := range st.entries {
			if e.TxHash != nil && *e.TxHash == *entry.TxHash {
				return domain.ErrDuplicateTxHash
			}
		}
	}
	if entry.Kind == domain.EntryKindFreeze && entry.OrderID != nil {
		if prev := latestByOrder(st.entries, *entry.OrderID, domain.EntryKindFreeze); prev != nil && prev.IsPending() {
			return domain.ErrOrderFrozen
		}
	}
	st.entries = append(st.entries, *entry)
	return nil
}

func (r memLedgerRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EntryStatus) error {
	st := stateOf(tx)
	for i := range st.entries {
		if st.entries[i].ID != id {
			continue
		}
		if !domain.CanTransition(st.entries[i].Status, status) {
			return domain.ErrInvalidTransition
		}
		st.entries[i].Status = status
		return nil
	}
	return domain.ErrInvalidTransition
}

func latestByOrder(entries []domain.LedgerEntry, orderID string, kind domain.EntryKind) *domain.LedgerEntry {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Kind == kind && e.OrderID != nil && *e.OrderID == orderID {
			return &e
		}
	}
	return nil
}

func (r memLedgerRepo) FindLatestByOrderAndKind(ctx context.Context, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	return latestByOrder(r.store.read().entries, orderID, kind), nil
}

func (r memLedgerRepo) FindLatestByOrderAndKindForUpdate(ctx context.Context, tx pgx.Tx, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	r.store.lockRow("order:" + orderID)
	return latestByOrder(stateOf(tx).entries, orderID, kind), nil
}

func (r memLedgerRepo) FindByTxHash(ctx context.Context, txHash string) (*domain.LedgerEntry, error) {
	for _, e := range r.store.read().entries {
		if e.TxHash != nil && *e.TxHash == txHash {
			return &e, nil
		}
	}
	return nil, nil
}

func (r memLedgerRepo) LatestByTraderAndKind(ctx context.Context, traderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	entries := r.store.read().entries
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TraderID == traderID && entries[i].Kind == kind {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r memLedgerRepo) ListPending(ctx context.Context, traderID string, kinds []domain.EntryKind) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range r.store.read().entries {
		if e.TraderID == traderID && e.Status == domain.EntryStatusPending && kindIn(e.Kind, kinds) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memLedgerRepo) List(ctx context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
	var matched []domain.LedgerEntry
	entries := r.store.read().entries
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.TraderID != params.TraderID {
			continue
		}
		if len(params.Kinds) > 0 && !kindIn(e.Kind, params.Kinds) {
			continue
		}
		if kindIn(e.Kind, params.ExcludeKinds) {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.LedgerEntry{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r memLedgerRepo) SumByKindAndRange(ctx context.Context, traderID string, kind domain.EntryKind, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.store.read().entries {
		if e.TraderID == traderID && e.Kind == kind && e.Status != domain.EntryStatusFailed &&
			!e.CreatedAt.Before(from) && !e.CreatedAt.After(to) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func kindIn(k domain.EntryKind, kinds []domain.EntryKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// memLocker is an in-process ports.Locker.
type memLocker struct {
	mu      sync.Mutex
	held    map[string]string
	extends int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Unlock(ctx context.Context, key string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *memLocker) Extend(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.extends++
	return l.held[key] == token, nil
}

// steal hands key to another holder.
func (l *memLocker) steal(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "other-replica"
}

func (l *memLocker) extendCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.extends
}

// memCache is an in-process ports.DepositCache.
type memCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemCache() *memCache {
	return &memCache{seen: map[string]bool{}}
}

func (c *memCache) Seen(ctx context.Context, txHash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[txHash], nil
}

func (c *memCache) Mark(ctx context.Context, txHash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[txHash] = true
	return nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.LedgerEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev *domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string)                 {}
func (nopMetrics) ObserveCredit(domain.EntryKind, decimal.Decimal) {}
func (nopMetrics) ObserveCycle(time.Duration, int, int)            {}

package budgetwatch

import (
	"context"
	"sync"
	"time"
)

// BudgetAPI is the remote read surface the refresh engine drives. *Client
// implements it; tests substitute a mock.
type BudgetAPI interface {
	GetBudget(ctx context.Context, budgetID string) (*BudgetDetail, error)
	GetAccounts(ctx context.Context, budgetID string) ([]*Account, error)
	GetCategories(ctx context.Context, budgetID string) ([]*CategoryGroup, error)
	GetMonth(ctx context.Context, budgetID, month string) (*Month, error)
	GetTransactions(ctx context.Context, budgetID string) ([]*Transaction, error)
	Quota() QuotaInfo
}

// EngineConfig configures a refresh engine for one budget instance.
type EngineConfig struct {
	BudgetID   string
	BudgetName string

	// SelectedAccounts and SelectedCategories are the user's chosen id
	// subsets. They may change later via SetSelection; filtering re-applies
	// on every cycle.
	SelectedAccounts   []string
	SelectedCategories []string

	// IncludeClosedAccounts keeps closed accounts in the published set.
	IncludeClosedAccounts bool

	// IncludeHiddenCategories keeps hidden categories in the published set.
	IncludeHiddenCategories bool
}

// RefreshEngine orchestrates refresh cycles: it reads the five remote
// resources, filters and merges them with user edits, computes derived
// attention metrics, persists the snapshot, and applies the degraded-mode
// policy on failure. Consumers never see an error from a cycle; they see a
// snapshot (possibly stale) whose APIStatus describes the problem.
type RefreshEngine struct {
	api       BudgetAPI
	edits     *UserEditStore
	snapshots *SnapshotStore
	logger    Logger

	budgetID   string
	budgetName string

	// refreshMu serializes cycles: one cycle runs to completion before the
	// next may start.
	refreshMu sync.Mutex

	mu            sync.Mutex
	selAccounts   map[string]struct{}
	selCategories map[string]struct{}
	includeClosed bool
	includeHidden bool
	status        APIStatus
	snapshot      *BudgetSnapshot
	subscribers   []func(*BudgetSnapshot)

	now func() time.Time
}

// NewRefreshEngine creates a refresh engine. The edit store's change
// listener is wired so a user mutation re-merges and re-publishes the
// current snapshot without a remote fetch.
func NewRefreshEngine(api BudgetAPI, edits *UserEditStore, snapshots *SnapshotStore, cfg EngineConfig, logger Logger) *RefreshEngine {
	e := &RefreshEngine{
		api:           api,
		edits:         edits,
		snapshots:     snapshots,
		logger:        logger,
		budgetID:      cfg.BudgetID,
		budgetName:    cfg.BudgetName,
		selAccounts:   idSet(cfg.SelectedAccounts),
		selCategories: idSet(cfg.SelectedCategories),
		includeClosed: cfg.IncludeClosedAccounts,
		includeHidden: cfg.IncludeHiddenCategories,
		status:        NewAPIStatus(),
		now:           time.Now,
	}

	if edits != nil {
		edits.OnChange(e.republishEdits)
	}

	return e
}

// SetSelection replaces the selected account and category id sets. The new
// selection takes effect on the next cycle without rebuilding the engine.
func (e *RefreshEngine) SetSelection(accountIDs, categoryIDs []string) {
	e.mu.Lock()
	e.selAccounts = idSet(accountIDs)
	e.selCategories = idSet(categoryIDs)
	e.mu.Unlock()
}

// Subscribe registers a consumer notified with every published snapshot.
func (e *RefreshEngine) Subscribe(fn func(*BudgetSnapshot)) {
	e.mu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.mu.Unlock()
}

// Snapshot returns the currently published snapshot, or nil before the
// first publish.
func (e *RefreshEngine) Snapshot() *BudgetSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Status returns the current connection health record.
func (e *RefreshEngine) Status() APIStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LoadCached primes the engine from the durable snapshot store at startup,
// adopting the persisted snapshot and its status so consumers see
// last-known-good data before the first cycle completes.
func (e *RefreshEngine) LoadCached() {
	if e.snapshots == nil {
		return
	}

	snap, ok, err := e.snapshots.Load()
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("Failed to load persisted snapshot", "budget", e.budgetName, "error", err)
		}
		return
	}
	if !ok {
		return
	}

	e.mu.Lock()
	e.snapshot = snap
	e.status = snap.APIStatus
	e.mu.Unlock()
}

// Refresh runs one full cycle and returns the snapshot it published. The
// returned error is the classified cause when the cycle failed; the
// snapshot is published either way.
func (e *RefreshEngine) Refresh(ctx context.Context) (*BudgetSnapshot, error) {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	if e.logger != nil {
		e.logger.Debug("Fetching latest budget data", "budget", e.budgetName)
		if e.Status().ConsecutiveFailures > 0 {
			e.logger.Debug("Attempting API calls after previous failures", "budget", e.budgetName)
		}
	}

	month := MonthKey(e.now())

	// The five reads run sequentially; the first failure aborts the rest of
	// the cycle. Partial data is worse than stale data here: a half-updated
	// account list would misrepresent the user's financial state.
	budget, err := e.api.GetBudget(ctx, e.budgetID)
	if err != nil {
		return e.publishFailure(err), err
	}

	accounts, err := e.api.GetAccounts(ctx, e.budgetID)
	if err != nil {
		return e.publishFailure(err), err
	}

	groups, err := e.api.GetCategories(ctx, e.budgetID)
	if err != nil {
		return e.publishFailure(err), err
	}

	monthDetail, err := e.api.GetMonth(ctx, e.budgetID, month)
	if err != nil {
		return e.publishFailure(err), err
	}

	transactions, err := e.api.GetTransactions(ctx, e.budgetID)
	if err != nil {
		return e.publishFailure(err), err
	}

	return e.publishSuccess(budget, accounts, groups, monthDetail, transactions), nil
}

// publishSuccess assembles, persists, and publishes the merged snapshot for
// a fully successful cycle.
func (e *RefreshEngine) publishSuccess(budget *BudgetDetail, accounts []*Account, groups []*CategoryGroup, monthDetail *Month, transactions []*Transaction) *BudgetSnapshot {
	pollTime := formatPollTime(e.now())
	quota := e.api.Quota()
	edits := e.currentEdits()

	e.mu.Lock()
	selAccounts := e.selAccounts
	selCategories := e.selCategories
	includeClosed := e.includeClosed
	includeHidden := e.includeHidden
	e.mu.Unlock()

	retained := filterAccounts(accounts, selAccounts, includeClosed)
	merged := mergeAccounts(retained, edits)
	categories := filterCategories(groups, selCategories, includeHidden)

	unapproved := 0
	for _, t := range transactions {
		if !t.Approved {
			unapproved++
		}
	}

	active := make(map[string]struct{}, len(merged))
	for _, a := range merged {
		if !a.Closed && !a.Deleted {
			active[a.ID] = struct{}{}
		}
	}

	uncleared := 0
	for _, t := range transactions {
		if t.Cleared != ClearedUncleared {
			continue
		}
		if _, ok := active[t.AccountID]; !ok {
			continue
		}
		if t.ScheduledTransactionID != "" {
			continue
		}
		uncleared++
	}

	overspent := 0
	if monthDetail != nil {
		for _, c := range monthDetail.Categories {
			if c.Balance < 0 {
				overspent++
			}
		}
	}

	needsAttention := 0
	for _, n := range []int{unapproved, uncleared, overspent} {
		if n > 0 {
			needsAttention++
		}
	}

	budgetName := e.budgetName
	if budget != nil && budget.Name != "" {
		budgetName = budget.Name
	}

	e.mu.Lock()
	e.status.Status = StatusConnected
	e.status.LastError = "None"
	e.status.ConsecutiveFailures = 0
	applyQuota(&e.status, quota)
	e.status.IsAtLimit = e.status.Status == StatusRateLimited
	e.status.LastSuccessfulRequest = pollTime

	snap := &BudgetSnapshot{
		BudgetID:               e.budgetID,
		BudgetName:             budgetName,
		Accounts:               merged,
		Categories:             categories,
		MonthlySummary:         monthDetail,
		Transactions:           transactions,
		UnapprovedTransactions: unapproved,
		UnclearedTransactions:  uncleared,
		OverspentCategories:    overspent,
		NeedsAttentionCount:    needsAttention,
		LastSuccessfulPoll:     pollTime,
		APIStatus:              e.status,
	}

	e.snapshot = snap
	subscribers := e.copySubscribersLocked()
	e.mu.Unlock()

	e.persist(snap)
	e.notify(subscribers, snap)
	return snap
}

// publishFailure applies the degraded-mode policy: classify the failure,
// update the health record, and re-publish the last known good data with
// only the status replaced. When no prior snapshot exists anywhere, the
// explicit all-empty snapshot is published instead.
func (e *RefreshEngine) publishFailure(cause error) *BudgetSnapshot {
	now := e.now()
	status, lastError := classifyError(cause)

	// Quota accounting happens at the transport layer, so the quota fields
	// refresh regardless of how the failure classifies.
	quota := e.api.Quota()

	e.mu.Lock()
	e.status.ConsecutiveFailures++
	e.status.LastErrorTime = formatPollTime(now)
	e.status.Status = status
	e.status.LastError = lastError
	applyQuota(&e.status, quota)
	e.status.IsAtLimit = status == StatusRateLimited
	failures := e.status.ConsecutiveFailures

	if e.snapshot == nil && e.snapshots != nil {
		loaded, ok, err := e.snapshots.Load()
		if err != nil && e.logger != nil {
			e.logger.Warn("Failed to load persisted snapshot during failure", "budget", e.budgetName, "error", err)
		}
		if ok {
			e.snapshot = loaded
		}
	}

	var snap *BudgetSnapshot
	if e.snapshot != nil {
		// Stale data stays visible; only the status changes. The last
		// recorded poll time is copied forward so "last known good" stays
		// introspectable even though this cycle failed.
		if e.snapshot.LastSuccessfulPoll != "" && e.snapshot.LastSuccessfulPoll != NeverPolled {
			e.status.LastSuccessfulRequest = e.snapshot.LastSuccessfulPoll
		}
		snap = e.snapshot.Clone()
		snap.APIStatus = e.status
	} else {
		snap = NewEmptySnapshot(e.budgetID, e.budgetName)
		snap.APIStatus = e.status
	}
	e.snapshot = snap
	subscribers := e.copySubscribersLocked()
	e.mu.Unlock()

	if e.logger != nil {
		switch status {
		case StatusRateLimited:
			e.logger.Warn("API rate limited", "budget", e.budgetName, "consecutive_failures", failures)
		default:
			e.logger.Error("Error fetching budget data", "budget", e.budgetName, "error", cause, "consecutive_failures", failures)
		}
		if len(snap.Accounts) == 0 && snap.LastSuccessfulPoll == NeverPolled {
			e.logger.Warn("No previous data available during API error", "budget", e.budgetName)
		}
	}

	e.notify(subscribers, snap)
	return snap
}

// republishEdits re-merges the current user edits into the published
// snapshot and re-publishes it, without touching the remote API.
func (e *RefreshEngine) republishEdits() {
	edits := e.currentEdits()

	e.mu.Lock()
	if e.snapshot == nil {
		e.mu.Unlock()
		return
	}
	snap := e.snapshot.Clone()
	snap.Accounts = mergeAccounts(snap.Accounts, edits)
	e.snapshot = snap
	subscribers := e.copySubscribersLocked()
	e.mu.Unlock()

	e.notify(subscribers, snap)
}

// currentEdits takes the copy-on-read snapshot of the three edit mappings
// used by a merge step.
func (e *RefreshEngine) currentEdits() *UserEdits {
	if e.edits == nil {
		return NewUserEdits()
	}
	return e.edits.Edits()
}

// persist writes the snapshot best-effort: a store failure is logged and
// the in-memory snapshot is still published.
func (e *RefreshEngine) persist(snap *BudgetSnapshot) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.Save(snap); err != nil && e.logger != nil {
		e.logger.Warn("Failed to persist snapshot", "budget", e.budgetName, "error", err)
	}
}

func (e *RefreshEngine) copySubscribersLocked() []func(*BudgetSnapshot) {
	return append(([]func(*BudgetSnapshot))(nil), e.subscribers...)
}

func (e *RefreshEngine) notify(subscribers []func(*BudgetSnapshot), snap *BudgetSnapshot) {
	for _, fn := range subscribers {
		fn(snap)
	}
}

// filterAccounts keeps selected accounts in their original relative order.
func filterAccounts(accounts []*Account, selected map[string]struct{}, includeClosed bool) []*Account {
	out := make([]*Account, 0, len(selected))
	for _, a := range accounts {
		if _, ok := selected[a.ID]; !ok {
			continue
		}
		if a.Closed && !includeClosed {
			continue
		}
		out = append(out, a)
	}
	return out
}

// mergeAccounts clones each account and applies the user-entered fields.
// Merging the same edits twice yields identical results.
func mergeAccounts(accounts []*Account, edits *UserEdits) []*Account {
	out := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		merged := a.Clone()
		if limit, ok := edits.CreditLimits[a.ID]; ok {
			v := limit
			merged.CreditLimit = &v
		}
		if apr, ok := edits.APRs[a.ID]; ok {
			v := apr
			merged.APR = &v
		}
		if day, ok := edits.DueDays[a.ID]; ok {
			v := day
			merged.DueDay = &v
		}
		out = append(out, merged)
	}
	return out
}

// filterCategories flattens the grouped shape and keeps selected categories
// in their original relative order, carrying the group name onto each.
func filterCategories(groups []*CategoryGroup, selected map[string]struct{}, includeHidden bool) []*Category {
	out := make([]*Category, 0, len(selected))
	for _, g := range groups {
		for _, c := range g.Categories {
			if _, ok := selected[c.ID]; !ok {
				continue
			}
			if c.Hidden && !includeHidden {
				continue
			}
			kept := *c
			if kept.CategoryGroupName == "" {
				kept.CategoryGroupName = g.Name
			}
			out = append(out, &kept)
		}
	}
	return out
}

// applyQuota copies a quota view into the health record.
func applyQuota(status *APIStatus, quota QuotaInfo) {
	status.RequestsMadeTotal = quota.RequestsMadeTotal
	status.RequestsThisHour = quota.RequestsThisHour
	status.EstimatedRemaining = quota.EstimatedRemaining
	status.RateLimitResetsAt = formatResetTime(quota.RateLimitResetsAt)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

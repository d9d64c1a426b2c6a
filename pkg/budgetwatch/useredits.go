package budgetwatch

import (
	"encoding/json"
	"sync"

	"github.com/budgetwatch/budgetwatch-go/internal/store"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Record names within the durable store. The legacy record is the old
// home of user values before they moved to their own record; it is
// migrated from once and then erased.
const (
	userEditsRecord     = "user_edits"
	legacyOptionsRecord = "options"
	snapshotRecord      = "snapshot"
	recordVersion       = 1
)

// UserEdits holds the user-entered per-account fields, keyed by account id.
// They are independent of remote data and persisted separately.
type UserEdits struct {
	CreditLimits map[string]decimal.Decimal `json:"credit_limits"`
	APRs         map[string]decimal.Decimal `json:"aprs"`
	DueDays      map[string]int             `json:"due_days"`
}

// NewUserEdits returns an empty edit set.
func NewUserEdits() *UserEdits {
	return &UserEdits{
		CreditLimits: make(map[string]decimal.Decimal),
		APRs:         make(map[string]decimal.Decimal),
		DueDays:      make(map[string]int),
	}
}

// Clone returns a deep copy of the edit set. Merging works from a clone so a
// mutation arriving mid-cycle can never produce a torn read.
func (e *UserEdits) Clone() *UserEdits {
	clone := NewUserEdits()
	for k, v := range e.CreditLimits {
		clone.CreditLimits[k] = v
	}
	for k, v := range e.APRs {
		clone.APRs[k] = v
	}
	for k, v := range e.DueDays {
		clone.DueDays[k] = v
	}
	return clone
}

// ErrInvalidDueDay is returned for a due day outside 1..31.
var ErrInvalidDueDay = errors.New("due day must be between 1 and 31")

// UserEditStore is the durable store for user-entered per-account fields.
// Every mutation persists synchronously and then notifies the change
// listener so the published snapshot can be re-merged without a refetch.
type UserEditStore struct {
	mu         sync.Mutex
	store      *store.Store
	instanceID string
	logger     Logger
	edits      *UserEdits
	onChange   func()
}

// NewUserEditStore creates a store for one budget instance.
func NewUserEditStore(s *store.Store, instanceID string, logger Logger) *UserEditStore {
	return &UserEditStore{
		store:      s,
		instanceID: instanceID,
		logger:     logger,
		edits:      NewUserEdits(),
	}
}

// OnChange registers the listener invoked after every persisted mutation.
func (u *UserEditStore) OnChange(fn func()) {
	u.mu.Lock()
	u.onChange = fn
	u.mu.Unlock()
}

// Load reads the durable record, performing the one-time migration from the
// legacy options record: any field whose mapping is empty locally but
// non-empty in the legacy record is copied over, then the legacy record is
// erased. The result is always persisted, which also covers the first run.
func (u *UserEditStore) Load() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	edits := NewUserEdits()

	payload, ok, err := u.store.Get(u.instanceID, userEditsRecord)
	if err != nil {
		return errors.Wrap(err, "failed to load user edits")
	}
	if ok {
		if err := json.Unmarshal(payload, edits); err != nil {
			return errors.Wrap(err, "failed to parse user edits")
		}
		ensureEditMaps(edits)
	}

	migrated, err := u.migrateLegacyLocked(edits)
	if err != nil {
		return err
	}
	if migrated {
		if u.logger != nil {
			u.logger.Warn("Migrated credit limits/APRs/due days from legacy options record", "instance_id", u.instanceID)
		}
		if err := u.store.Delete(u.instanceID, legacyOptionsRecord); err != nil {
			return errors.Wrap(err, "failed to erase legacy options record")
		}
	}

	u.edits = edits
	return u.saveLocked()
}

// migrateLegacyLocked copies per-field legacy data into empty local maps.
func (u *UserEditStore) migrateLegacyLocked(edits *UserEdits) (bool, error) {
	payload, ok, err := u.store.Get(u.instanceID, legacyOptionsRecord)
	if err != nil {
		return false, errors.Wrap(err, "failed to read legacy options record")
	}
	if !ok {
		return false, nil
	}

	legacy := NewUserEdits()
	if err := json.Unmarshal(payload, legacy); err != nil {
		return false, errors.Wrap(err, "failed to parse legacy options record")
	}
	ensureEditMaps(legacy)

	migrated := false
	if len(edits.CreditLimits) == 0 && len(legacy.CreditLimits) > 0 {
		edits.CreditLimits = legacy.CreditLimits
		migrated = true
	}
	if len(edits.APRs) == 0 && len(legacy.APRs) > 0 {
		edits.APRs = legacy.APRs
		migrated = true
	}
	if len(edits.DueDays) == 0 && len(legacy.DueDays) > 0 {
		edits.DueDays = legacy.DueDays
		migrated = true
	}
	return migrated, nil
}

// Edits returns a deep copy of the current edit set.
func (u *UserEditStore) Edits() *UserEdits {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.edits.Clone()
}

// CreditLimit returns the stored credit limit for an account.
func (u *UserEditStore) CreditLimit(accountID string) (decimal.Decimal, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.edits.CreditLimits[accountID]
	return v, ok
}

// APR returns the stored APR for an account.
func (u *UserEditStore) APR(accountID string) (decimal.Decimal, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.edits.APRs[accountID]
	return v, ok
}

// DueDay returns the stored due day for an account.
func (u *UserEditStore) DueDay(accountID string) (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.edits.DueDays[accountID]
	return v, ok
}

// SetCreditLimit stores a credit limit, persists, and notifies.
func (u *UserEditStore) SetCreditLimit(accountID string, value decimal.Decimal) error {
	return u.mutate(func(e *UserEdits) {
		e.CreditLimits[accountID] = value
	})
}

// SetAPR stores an APR, persists, and notifies.
func (u *UserEditStore) SetAPR(accountID string, value decimal.Decimal) error {
	return u.mutate(func(e *UserEdits) {
		e.APRs[accountID] = value
	})
}

// SetDueDay stores a day-of-month due day, persists, and notifies.
func (u *UserEditStore) SetDueDay(accountID string, day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDueDay
	}
	return u.mutate(func(e *UserEdits) {
		e.DueDays[accountID] = day
	})
}

// mutate applies a mutation under the lock, persists synchronously, and then
// notifies the listener outside the lock.
func (u *UserEditStore) mutate(fn func(*UserEdits)) error {
	u.mu.Lock()
	fn(u.edits)
	err := u.saveLocked()
	onChange := u.onChange
	u.mu.Unlock()

	if err != nil {
		return err
	}
	if onChange != nil {
		onChange()
	}
	return nil
}

// saveLocked persists all three mappings atomically as one record.
func (u *UserEditStore) saveLocked() error {
	payload, err := json.Marshal(u.edits)
	if err != nil {
		return errors.Wrap(err, "failed to marshal user edits")
	}
	if err := u.store.Put(u.instanceID, userEditsRecord, recordVersion, payload); err != nil {
		return errors.Wrap(err, "failed to save user edits")
	}
	if u.logger != nil {
		u.logger.Debug("Saved user edits", "instance_id", u.instanceID)
	}
	return nil
}

// Teardown erases every durable record for this instance. Only
// whole-configuration removal ever deletes user edits.
func (u *UserEditStore) Teardown() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.edits = NewUserEdits()
	return errors.Wrap(u.store.DeleteInstance(u.instanceID), "failed to tear down instance records")
}

func ensureEditMaps(e *UserEdits) {
	if e.CreditLimits == nil {
		e.CreditLimits = make(map[string]decimal.Decimal)
	}
	if e.APRs == nil {
		e.APRs = make(map[string]decimal.Decimal)
	}
	if e.DueDays == nil {
		e.DueDays = make(map[string]int)
	}
}

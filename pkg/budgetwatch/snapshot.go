package budgetwatch

import (
	"encoding/json"

	"github.com/budgetwatch/budgetwatch-go/internal/store"
	"github.com/pkg/errors"
)

// SnapshotStore persists the last successfully merged snapshot so stale but
// valid data survives process restarts and outages. It holds no merge
// logic; that lives in the refresh engine.
type SnapshotStore struct {
	store      *store.Store
	instanceID string
	logger     Logger
}

// NewSnapshotStore creates a snapshot store for one budget instance.
func NewSnapshotStore(s *store.Store, instanceID string, logger Logger) *SnapshotStore {
	return &SnapshotStore{
		store:      s,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Load reads the last persisted snapshot. The second return value reports
// whether one exists.
func (s *SnapshotStore) Load() (*BudgetSnapshot, bool, error) {
	payload, ok, err := s.store.Get(s.instanceID, snapshotRecord)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to load snapshot")
	}
	if !ok {
		return nil, false, nil
	}

	var snap BudgetSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, errors.Wrap(err, "failed to parse snapshot")
	}
	return &snap, true, nil
}

// Save persists a snapshot, replacing any previous one.
func (s *SnapshotStore) Save(snap *BudgetSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal snapshot")
	}
	if err := s.store.Put(s.instanceID, snapshotRecord, recordVersion, payload); err != nil {
		return errors.Wrap(err, "failed to save snapshot")
	}
	if s.logger != nil {
		s.logger.Debug("Saved snapshot", "instance_id", s.instanceID)
	}
	return nil
}

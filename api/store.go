package api

import (
	"sync"

	"datalens/domain/core"
	"datalens/domain/profile"
	"datalens/internal/errors"
)

// datasetEntry pairs an uploaded dataset with its profile once one has been
// computed.
type datasetEntry struct {
	Dataset *profile.Dataset
	Profile *profile.DatasetProfile
}

// datasetStore is the in-memory dataset registry. Uploaded datasets live for
// the lifetime of the process; there is no eviction.
type datasetStore struct {
	mu      sync.RWMutex
	entries map[core.DatasetID]*datasetEntry
}

func newDatasetStore() *datasetStore {
	return &datasetStore{entries: make(map[core.DatasetID]*datasetEntry)}
}

func (s *datasetStore) Put(ds *profile.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ds.ID] = &datasetEntry{Dataset: ds}
}

// Get returns a snapshot of the entry taken under the lock. Handlers read
// the snapshot after the lock is released, so a concurrent SetProfile never
// races with them.
func (s *datasetStore) Get(id core.DatasetID) (datasetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return datasetEntry{}, errors.NotFound("dataset " + string(id))
	}
	return *entry, nil
}

func (s *datasetStore) SetProfile(id core.DatasetID, p *profile.DatasetProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return errors.NotFound("dataset " + string(id))
	}
	entry.Profile = p
	return nil
}

// List returns dataset IDs in no particular order.
func (s *datasetStore) List() []core.DatasetID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]core.DatasetID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

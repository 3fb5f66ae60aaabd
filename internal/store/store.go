package store

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"batchline/internal/dataprocessing"
	"batchline/pkg/contracts/domain"
)

// ErrNoDataset is returned before the first successful ingestion
var ErrNoDataset = errors.New("no dataset loaded")

// Dataset is one ingested file and its consolidated records
type Dataset struct {
	ID          string                     `json:"id"`
	Source      string                     `json:"source"`
	Fingerprint string                     `json:"fingerprint"`
	IngestedAt  time.Time                  `json:"ingested_at"`
	Stats       dataprocessing.IngestStats `json:"stats"`
	Records     []domain.BatchRecord       `json:"-"`
}

// Summary describes a dataset without its records
type Summary struct {
	ID          string                     `json:"id"`
	Source      string                     `json:"source"`
	Fingerprint string                     `json:"fingerprint"`
	IngestedAt  time.Time                  `json:"ingested_at"`
	Stats       dataprocessing.IngestStats `json:"stats"`
	Batches     int                        `json:"batches"`
	Records     int                        `json:"records"`
}

// Summary counts distinct batches and records
func (d *Dataset) Summary() Summary {
	batches := make(map[string]struct{})
	for _, r := range d.Records {
		batches[r.BatchID] = struct{}{}
	}
	return Summary{
		ID:          d.ID,
		Source:      d.Source,
		Fingerprint: d.Fingerprint,
		IngestedAt:  d.IngestedAt,
		Stats:       d.Stats,
		Batches:     len(batches),
		Records:     len(d.Records),
	}
}

// Fingerprint is the hex BLAKE2b-256 digest of the raw input bytes
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Listener is called after every replacement, outside the store lock
type Listener func(Summary)

// Store holds the current dataset
type Store struct {
	mu        sync.RWMutex
	current   *Dataset
	listeners []Listener
	now       func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{now: time.Now}
}

// Subscribe registers a listener for replacements
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Replace installs a new dataset built from an ingestion result and returns it
func (s *Store) Replace(source string, data []byte, res *dataprocessing.Result) *Dataset {
	ds := &Dataset{
		ID:          uuid.New().String(),
		Source:      source,
		Fingerprint: Fingerprint(data),
		IngestedAt:  s.now().UTC(),
		Stats:       res.Stats,
		Records:     res.Records,
	}

	s.mu.Lock()
	s.current = ds
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	summary := ds.Summary()
	for _, l := range listeners {
		l(summary)
	}
	return ds
}

// Current returns the dataset in use or ErrNoDataset
func (s *Store) Current() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}

// Clear drops the current dataset
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/dataprocessing"
	"batchline/pkg/contracts/domain"
)

func result(batches ...string) *dataprocessing.Result {
	res := &dataprocessing.Result{Stats: dataprocessing.IngestStats{Format: dataprocessing.FormatDBF}}
	for _, b := range batches {
		res.Records = append(res.Records, domain.BatchRecord{BatchID: b, EquipmentGroup: "Filtro 1"})
	}
	res.Stats.Records = len(res.Records)
	return res
}

func TestStoreEmpty(t *testing.T) {
	s := New()
	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestStoreReplace(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first := s.Replace("a.dbf", []byte("one"), result("B1", "B1", "B2"))
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, first.IngestedAt)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, first, cur)

	sum := cur.Summary()
	assert.Equal(t, 2, sum.Batches)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, "a.dbf", sum.Source)

	second := s.Replace("b.dbf", []byte("two"), result("B9"))
	assert.NotEqual(t, first.ID, second.ID)
	cur, _ = s.Current()
	assert.Len(t, cur.Records, 1, "replacement is wholesale")
	assert.Len(t, first.Records, 3, "old snapshot unchanged")

	s.Clear()
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("same"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("same")))
	assert.NotEqual(t, a, Fingerprint([]byte("other")))
}

func TestStoreSubscribe(t *testing.T) {
	s := New()
	var mu sync.Mutex
	var got []Summary
	s.Subscribe(func(sum Summary) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, sum)
		// reading inside a listener must not deadlock
		_, err := s.Current()
		assert.NoError(t, err)
	})

	ds := s.Replace("a.dbf", []byte("x"), result("B1"))
	require.Len(t, got, 1)
	assert.Equal(t, ds.ID, got[0].ID)
	assert.Equal(t, 1, got[0].Batches)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace("a.dbf", []byte("x"), result("B1"))
		}()
		go func() {
			defer wg.Done()
			if ds, err := s.Current(); err == nil {
				_ = ds.Summary()
			}
		}()
	}
	wg.Wait()
	_, err := s.Current()
	assert.NoError(t, err)
}

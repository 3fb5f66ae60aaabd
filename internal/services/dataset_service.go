package services

import (
	"context"
	"fmt"
	"log/slog"

	"batchline/internal/dataprocessing"
	"batchline/internal/query"
	"batchline/internal/store"
	ws "batchline/internal/websocket"
	"batchline/pkg/contracts/domain"
)

// Broadcaster pushes notifications to connected clients
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// CycleTime is the deduplicated occupancy of one batch
type CycleTime struct {
	BatchID        string                `json:"batch_id"`
	EquipmentGroup string                `json:"equipment_group"`
	Intervals      []domain.TimeInterval `json:"intervals"`
	TrueCycleMin   float64               `json:"true_cycle_min"`
	RealTotalMin   float64               `json:"real_total_min"`
	// BatchCycleMin merges the intervals of every equipment group of the batch
	BatchCycleMin float64 `json:"batch_cycle_min"`
}

// DatasetService ingests files and queries the current dataset
type DatasetService struct {
	pipeline    *dataprocessing.Pipeline
	store       *store.Store
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewDatasetService creates a dataset service. broadcaster may be nil.
func NewDatasetService(pipeline *dataprocessing.Pipeline, st *store.Store, broadcaster Broadcaster, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		pipeline:    pipeline,
		store:       st,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "dataset_service")),
	}
}

// Ingest runs the pipeline over one file and replaces the current dataset.
// A failed ingestion leaves the previous dataset in place.
func (s *DatasetService) Ingest(ctx context.Context, name string, data []byte) (store.Summary, error) {
	if len(data) == 0 {
		return store.Summary{}, ErrEmptyUpload
	}

	res, err := s.pipeline.Run(ctx, dataprocessing.Source{Name: name, Data: data})
	if err != nil {
		return store.Summary{}, fmt.Errorf("ingest %s: %w", name, err)
	}

	ds := s.store.Replace(name, data, res)
	summary := ds.Summary()

	s.logger.InfoContext(ctx, "dataset replaced",
		slog.String("dataset_id", summary.ID),
		slog.String("source", name),
		slog.Int("batches", summary.Batches),
		slog.Int("records", summary.Records))

	return summary, nil
}

// Current returns the summary of the dataset in use
func (s *DatasetService) Current(ctx context.Context) (store.Summary, error) {
	ds, err := s.store.Current()
	if err != nil {
		return store.Summary{}, err
	}
	return ds.Summary(), nil
}

// Clear drops the dataset and tells clients
func (s *DatasetService) Clear(ctx context.Context) {
	s.store.Clear()
	s.logger.InfoContext(ctx, "dataset cleared")
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ws.TypeDatasetCleared, nil)
	}
}

// Records returns every record of the current dataset
func (s *DatasetService) Records(ctx context.Context) ([]domain.BatchRecord, error) {
	ds, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return ds.Records, nil
}

// Batches returns the records matching f
func (s *DatasetService) Batches(ctx context.Context, f query.Filter) ([]domain.BatchRecord, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(records, f), nil
}

// Batch returns one (batch, equipment group) record
func (s *DatasetService) Batch(ctx context.Context, batchID, equipment string) (domain.BatchRecord, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return domain.BatchRecord{}, err
	}
	rec, ok := query.Find(records, batchID, equipment)
	if !ok {
		return domain.BatchRecord{}, fmt.Errorf("%w: %s/%s", ErrBatchNotFound, batchID, equipment)
	}
	return rec, nil
}

// Cycle computes the merged occupancy of one record and of its whole batch
func (s *DatasetService) Cycle(ctx context.Context, batchID, equipment string) (CycleTime, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return CycleTime{}, err
	}
	rec, ok := query.Find(records, batchID, equipment)
	if !ok {
		return CycleTime{}, fmt.Errorf("%w: %s/%s", ErrBatchNotFound, batchID, equipment)
	}

	merged := dataprocessing.MergeIntervals(dataprocessing.RecordIntervals(rec))
	if merged == nil {
		merged = []domain.TimeInterval{}
	}
	return CycleTime{
		BatchID:        rec.BatchID,
		EquipmentGroup: rec.EquipmentGroup,
		Intervals:      merged,
		TrueCycleMin:   dataprocessing.TrueCycleMinutes(rec),
		RealTotalMin:   rec.RealTotalMin,
		BatchCycleMin:  dataprocessing.BatchCycleMinutes(records, rec.BatchID),
	}, nil
}

// Facets lists the distinct filter values of the current dataset
func (s *DatasetService) Facets(ctx context.Context) (query.Facets, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return query.Facets{}, err
	}
	return query.BuildFacets(records), nil
}

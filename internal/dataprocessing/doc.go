// Package dataprocessing turns plant process-control exports into batch
// timelines.
//
// # Architecture
//
// The package is organized into three stages, composed by Pipeline:
//
//  1. Decoding: binary tables go through package dbf, .xlsx workbooks
//     through ParseWorkbook. Both yield untyped rows.
//  2. Normalization: EventNormalizer maps each row to a domain.ProcessEvent,
//     canonicalizing the equipment group and splitting the indexed slots into
//     materials and parameters.
//  3. Consolidation: Consolidator groups events by (batch, equipment group)
//     and folds each group into a domain.BatchRecord with synthesized wait
//     steps for idle gaps, summed materials and collected parameters.
//
// # Usage
//
//	p := dataprocessing.NewPipeline(dataprocessing.PipelineOptions{Logger: logger})
//	res, err := p.Run(ctx, dataprocessing.Source{Name: "line3.dbf", Data: data})
//	if err != nil {
//	    return err
//	}
//	for _, rec := range res.Records {
//	    fmt.Println(rec.BatchID, rec.EquipmentGroup, dataprocessing.TrueCycleMinutes(rec))
//	}
//
// # Data Flow
//
//	bytes → dbf.Decode / ParseWorkbook → RawRow → EventNormalizer → ProcessEvent
//	      → Consolidator → BatchRecord → MergeIntervals / analytics
//
// # Error Handling
//
// Only a broken file fails a run: a truncated table or a header whose field
// list is never terminated returns a *dbf.DecodeError. Deleted records, rows
// without a batch id and rows whose equipment is unassigned are skipped and
// counted in IngestStats. Large idle gaps become alert strings on the record.
//
// Every stage is a pure function of its input; separate runs may execute
// concurrently as long as they do not share an output slice.
package dataprocessing

// Package core provides the business logic for departmental data ingestion.
//
// The package is independent of any transport. It is used by the HTTP server,
// the deptdata CLI and tests without modification.
//
// # Architecture
//
//   - Rule Registry: [RuleRegistry] groups [ProcessingRule] values by
//     department and resolves the rule for an uploaded filename.
//   - Reader and Parser: [ReadFileContent] decodes uploads to UTF-8 text;
//     [ParseFileContent] turns CSV or JSON text into ordered [Fields] rows.
//   - Record Processor: [ProcessRecord] validates a row, applies its
//     transformations in order and produces a [DataRecord].
//   - Store: [RecordStore] keeps processed batches in memory.
//   - Service: [Service] ties these together and adds query, export,
//     concurrency limits and background jobs.
//
// # Processing a File
//
//	svc := core.NewService(core.NewRuleRegistry(rules.Defaults()), core.ServiceConfig{})
//	stats, err := svc.ProcessFile(ctx, core.Upload{
//	    Name: "passenger_counts.csv",
//	    Body: f,
//	}, "Operations", "q3-audit", nil)
//
// File-level failures ([ErrFileRead], [ErrMalformedJSON], ...) are returned
// and store nothing. Row-level failures are recorded on each record:
//
//   - a failed required check marks the row invalid, and invalid is final
//   - any other failed check lifts a valid row to warning
//   - a transformation error lifts a non-invalid row to warning
//
// [Service.PreviewFile] runs the same steps without storing anything.
//
// # Background Jobs
//
// [Service.StartProcessing] runs the same pipeline in a goroutine and
// broadcasts [JobProgress] to subscribers of [Service.SubscribeProgress].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE006: File errors (size, encoding, type)
//   - RULE001: No processing rule for the department
//   - EXP001: Unsupported export format
//   - UPL001-UPL005: Job and request errors
//   - RATE001: Rate limited
package core

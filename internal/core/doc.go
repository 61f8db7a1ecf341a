// Package core holds the ingest workflow for interval-metering files.
//
// It ties a registered file format (see [Register]) to the storage layer and
// the ambient services around a parse: concurrency limiting, the CSV error
// log, run bookkeeping and structured logging. Transport layers such as the
// HTTP server and the CLI call into [Service] and never touch the parser or
// the database directly.
//
// # Formats
//
// Formats register themselves at init time, the way database drivers do:
//
//	import _ "github.com/JonMunkholm/nem12ingest/internal/core/formats"
//
// A file is matched to a format by its extension.
//
// # Ingest flow
//
//  1. Caller hands [Service.IngestStream] a reader (or a path to [Service.IngestFile])
//  2. An ingest slot is acquired from the [IngestLimiter]
//  3. A run is created in the store and every event is tagged with its id
//  4. Readings are inserted in batches; duplicates (same NMI and timestamp) are skipped
//  5. Error events go to the CSV error log, the run's error table and the log
//  6. The run is marked completed, or failed on a structural or I/O error
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code prefix for support reference:
//
//   - NEM001-NEM003: file content errors (structure, format, line length)
//   - DB001-DB007: database errors (constraints, connections)
//   - FILE001-FILE005: file errors (size, missing, empty)
//   - ING001-ING006: ingest errors (cancelled, busy, not found, timeout, bad requests)
package core

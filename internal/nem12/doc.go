// Package nem12 parses NEM12 interval-metering files.
//
// A NEM12 file is a sequence of delimiter-separated records, one per line.
// The leading field of every record is its type code:
//
//	100  header, must be the first line
//	200  NMI details: meter identifier and the interval count of the
//	     300 records that follow
//	300  interval data: a calendar date followed by one consumption value
//	     per interval
//	500  reserved, skipped
//	900  footer
//
// [Parser.Parse] scans the input once, line by line, and streams every
// accepted [MeterReading] to a [ReadingSink] as soon as it is built. Each
// rule a line violates becomes one [ErrorEvent] delivered to an [ErrorSink];
// the scan always continues with the next line (or the next value, for a bad
// consumption value). Only a file missing its 100 or 900 record fails the
// call, and that is detected at end of file, after readings have already been
// streamed.
//
// A successful call ends with exactly one [AuditRecord] delivered to the
// [AuditSink]. Counts in the record cover that call only.
//
// Parser values are immutable and safe for concurrent use; all scan state is
// owned by a single call.
package nem12

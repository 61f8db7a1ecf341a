package nem12

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultDelimiter    = ","
	DefaultDateLayout   = "2006-01-02"
	DefaultMaxLineBytes = 1 << 20
)

// Config holds the parser settings. The zero value of any field selects its
// default.
type Config struct {
	// Delimiter separates fields within a record.
	Delimiter string

	// DateLayout is the time.Parse layout of the 300 record date field.
	DateLayout string

	// MaxLineBytes bounds the length of a single line. A longer line fails
	// the call with an I/O error.
	MaxLineBytes int
}

// DefaultConfig returns the configuration for standard NEM12 files.
func DefaultConfig() Config {
	return Config{
		Delimiter:    DefaultDelimiter,
		DateLayout:   DefaultDateLayout,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the diagnostic logger. Error sink failures are reported
// here.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser scans NEM12 files. It holds no per-file state.
type Parser struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Parser.
func New(cfg Config, opts ...Option) *Parser {
	def := DefaultConfig()
	if cfg.Delimiter == "" {
		cfg.Delimiter = def.Delimiter
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = def.DateLayout
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = def.MaxLineBytes
	}

	p := &Parser{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var openFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }

// ParseFile opens path and parses it with the path as file identifier. The
// file is closed before ParseFile returns.
func (p *Parser) ParseFile(path string, sinks Sinks) (AuditRecord, error) {
	f, err := openFile(path)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(path, f, sinks)
}

// Parse scans r line by line, delivering readings and error events as they
// are found. When the scan completes with both a header and a footer seen,
// the audit record is delivered to sinks.Audit and returned.
//
// Parse returns a *StructuralError if the header or footer is missing, and a
// wrapped read error if r fails. In both cases readings already delivered
// stay delivered and no audit record is produced.
func (p *Parser) Parse(fileID string, r io.Reader, sinks Sinks) (AuditRecord, error) {
	sinks = sinks.withDefaults()
	st := newScanState(fileID)

	lines := newLineReader(r, p.cfg.MaxLineBytes)
	for lines.Next() {
		p.dispatch(st, lines.Number(), Tokenize(lines.Text(), p.cfg.Delimiter), sinks)
	}
	if err := lines.Err(); err != nil {
		return AuditRecord{}, fmt.Errorf("read %s at line %d: %w", fileID, lines.Number()+1, err)
	}

	if !st.structurallyValid() {
		return AuditRecord{}, &StructuralError{
			FileID:        fileID,
			MissingHeader: !st.StartSeen,
			MissingFooter: !st.EndSeen,
		}
	}

	rec := auditFor(st)
	sinks.Audit.Audit(rec)
	return rec, nil
}

// dispatch routes one record to its handler.
func (p *Parser) dispatch(st *ScanState, line int, fields Fields, sinks Sinks) {
	if len(fields) == 0 {
		return
	}
	switch ClassifyRecord(fields.Code()) {
	case RecordHeader:
		p.handleHeader(st, line, fields, sinks)
	case RecordNMI:
		p.handleNMI(st, line, fields, sinks)
	case RecordInterval:
		p.handleInterval(st, line, fields, sinks)
	case RecordIgnored:
	case RecordFooter:
		st.EndSeen = true
	case RecordUnknown:
		p.emit(st, sinks, line, fields.Code(), KindUnknownRecord, ReasonUnknownRecord)
	}
}

func (p *Parser) handleHeader(st *ScanState, line int, fields Fields, sinks Sinks) {
	st.StartSeen = true
	if line != 1 {
		p.emit(st, sinks, line, fields.Code(), KindRecordField, ReasonHeaderNotFirst)
	}
}

// handleNMI updates the NMI context. The meter id is taken as soon as the
// record has enough fields; an unparseable interval count leaves the
// previous count in place.
func (p *Parser) handleNMI(st *ScanState, line int, fields Fields, sinks Sinks) {
	if len(fields) < 3 {
		p.emit(st, sinks, line, fields.Code(), KindRecordField, ReasonNMIFields)
		return
	}

	st.Context.NMI = fields[1]
	st.Context.Active = true

	n, err := strconv.Atoi(fields[2])
	if err != nil {
		p.emit(st, sinks, line, fields.Code(), KindFormat, ReasonNMIIntervalCount)
		return
	}
	st.Context.ExpectedIntervals = n
}

func (p *Parser) handleInterval(st *ScanState, line int, fields Fields, sinks Sinks) {
	code := fields.Code()
	if len(fields) < 3 {
		p.emit(st, sinks, line, code, KindRecordField, ReasonIntervalFields)
		return
	}
	if !st.Context.Active {
		p.emit(st, sinks, line, code, KindContext, ReasonNoNMIContext)
		return
	}

	date, err := time.ParseInLocation(p.cfg.DateLayout, fields[1], time.UTC)
	if err != nil {
		p.emit(st, sinks, line, code, KindFormat, ReasonIntervalDate)
		return
	}

	values := fields[2:]
	columns := len(values)
	if columns != st.Context.ExpectedIntervals {
		p.emit(st, sinks, line, code, KindSchemaMismatch,
			fmt.Sprintf("Interval count mismatch: expected %d, got %d", st.Context.ExpectedIntervals, columns))
		return
	}

	for i, raw := range values {
		v, err := parseValue(raw)
		if err != nil {
			p.emit(st, sinks, line, code, KindValue,
				fmt.Sprintf("%s %q in interval %d", ReasonNonNumeric, raw, i+1))
			continue
		}
		sinks.Readings.Accept(MeterReading{
			NMI:         st.Context.NMI,
			Timestamp:   date.Add(intervalHour(i, columns)),
			Consumption: v,
		})
		st.Emitted++
	}
}

// parseValue accepts a plain decimal number with an optional sign and
// exponent. Special values, hex floats and digit separators are rejected.
func parseValue(raw string) (float64, error) {
	if !isDecimal(raw) {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && isDigit(s[i]); i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// intervalHour is the offset from midnight of value i out of n. Values are
// bucketed to whole hours, so with more than 24 intervals several values
// share an hour.
func intervalHour(i, n int) time.Duration {
	return time.Duration(24*i/n) * time.Hour
}

// emit counts one error event and delivers it. A sink failure is logged and
// otherwise ignored.
func (p *Parser) emit(st *ScanState, sinks Sinks, line int, code string, kind ErrorKind, reason string) {
	st.Errors++
	ev := ErrorEvent{
		FileID:     st.FileID,
		Line:       line,
		RecordType: code,
		Kind:       kind,
		Reason:     reason,
	}
	if err := sinks.Errors.Record(ev); err != nil {
		p.logger.Warn("error sink failed",
			"file", ev.FileID,
			"line", ev.Line,
			"record_type", ev.RecordType,
			"kind", ev.Kind.String(),
			"error", err,
		)
	}
}

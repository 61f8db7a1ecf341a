package nem12

// ReadingSink receives accepted readings in file order.
type ReadingSink interface {
	Accept(MeterReading)
}

// ErrorSink receives error events in file order. A returned error is reported
// to the parser's logger and never stops the scan.
type ErrorSink interface {
	Record(ErrorEvent) error
}

// AuditSink receives the summary of a structurally valid scan.
type AuditSink interface {
	Audit(AuditRecord)
}

// ReadingFunc adapts a function to ReadingSink.
type ReadingFunc func(MeterReading)

func (f ReadingFunc) Accept(r MeterReading) { f(r) }

// ErrorFunc adapts a function to ErrorSink.
type ErrorFunc func(ErrorEvent) error

func (f ErrorFunc) Record(e ErrorEvent) error { return f(e) }

// AuditFunc adapts a function to AuditSink.
type AuditFunc func(AuditRecord)

func (f AuditFunc) Audit(a AuditRecord) { f(a) }

// Sinks groups the collaborators of a Parse call. Nil members discard what
// they would have received.
type Sinks struct {
	Readings ReadingSink
	Errors   ErrorSink
	Audit    AuditSink
}

func (s Sinks) withDefaults() Sinks {
	if s.Readings == nil {
		s.Readings = ReadingFunc(func(MeterReading) {})
	}
	if s.Errors == nil {
		s.Errors = ErrorFunc(func(ErrorEvent) error { return nil })
	}
	if s.Audit == nil {
		s.Audit = AuditFunc(func(AuditRecord) {})
	}
	return s
}

// MultiErrorSink delivers each event to every sink in order. All sinks are
// tried; the first failure is returned.
func MultiErrorSink(sinks ...ErrorSink) ErrorSink {
	return ErrorFunc(func(e ErrorEvent) error {
		var first error
		for _, s := range sinks {
			if err := s.Record(e); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

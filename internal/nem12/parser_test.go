package nem12_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// collector records everything a Parse call delivers.
type collector struct {
	readings []nem12.MeterReading
	events   []nem12.ErrorEvent
	audits   []nem12.AuditRecord
}

func (c *collector) sinks() nem12.Sinks {
	return nem12.Sinks{
		Readings: nem12.ReadingFunc(func(r nem12.MeterReading) { c.readings = append(c.readings, r) }),
		Errors: nem12.ErrorFunc(func(e nem12.ErrorEvent) error {
			c.events = append(c.events, e)
			return nil
		}),
		Audit: nem12.AuditFunc(func(a nem12.AuditRecord) { c.audits = append(c.audits, a) }),
	}
}

func (c *collector) kinds() []nem12.ErrorKind {
	out := make([]nem12.ErrorKind, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Kind)
	}
	return out
}

func parse(t *testing.T, input string) (*collector, nem12.AuditRecord, error) {
	t.Helper()
	c := &collector{}
	p := nem12.New(nem12.DefaultConfig())
	rec, err := p.Parse("test.csv", strings.NewReader(input), c.sinks())
	return c, rec, err
}

func at(date string, hour int) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour)
}

func lines(ls ...string) string { return strings.Join(ls, "\n") + "\n" }

func TestParse_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantReadings []nem12.MeterReading
		wantKinds    []nem12.ErrorKind
		wantErr      error
		wantAudit    *nem12.AuditRecord
	}{
		{
			name:  "valid file emits readings and audit",
			input: lines("100,NEM12", "200,M1,2", "300,2025-09-12,1.1,2.2", "900"),
			wantReadings: []nem12.MeterReading{
				{NMI: "M1", Timestamp: at("2025-09-12", 0), Consumption: 1.1},
				{NMI: "M1", Timestamp: at("2025-09-12", 12), Consumption: 2.2},
			},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 2, ErrorCount: 0},
		},
		{
			name:    "missing header is structural",
			input:   lines("200,M1,2", "300,2025-09-12,1.1,2.2", "900"),
			wantReadings: []nem12.MeterReading{
				{NMI: "M1", Timestamp: at("2025-09-12", 0), Consumption: 1.1},
				{NMI: "M1", Timestamp: at("2025-09-12", 12), Consumption: 2.2},
			},
			wantErr: nem12.ErrStructural,
		},
		{
			name:      "column count mismatch rejects whole row",
			input:     lines("100", "200,M1,3", "300,2025-09-12,1.1,2.2", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindSchemaMismatch},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 0, ErrorCount: 1},
		},
		{
			name:  "non-numeric value skips only that value",
			input: lines("100", "200,M1,3", "300,2025-09-12,1.1,abc,3.3", "900"),
			wantReadings: []nem12.MeterReading{
				{NMI: "M1", Timestamp: at("2025-09-12", 0), Consumption: 1.1},
				{NMI: "M1", Timestamp: at("2025-09-12", 16), Consumption: 3.3},
			},
			wantKinds: []nem12.ErrorKind{nem12.KindValue},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 2, ErrorCount: 1},
		},
		{
			name:      "unknown record type",
			input:     lines("100", "700,x", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindUnknownRecord},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 0, ErrorCount: 1},
		},
		{
			name:      "interval before any NMI record",
			input:     lines("100", "300,2025-09-12,1.1", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindContext},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", ErrorCount: 1},
		},
		{
			name:      "short records",
			input:     lines("100", "200,M1", "300,2025-09-12", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindRecordField, nem12.KindRecordField},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", ErrorCount: 2},
		},
		{
			name:      "bad date rejects row",
			input:     lines("100", "200,M1,1", "300,12/09/2025,1.1", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindFormat},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", ErrorCount: 1},
		},
		{
			name:  "header not first is reported but counts as seen",
			input: lines("500,anything", "100", "200,M1,1", "300,2025-09-12,4", "900"),
			wantReadings: []nem12.MeterReading{
				{NMI: "M1", Timestamp: at("2025-09-12", 0), Consumption: 4},
			},
			wantKinds: []nem12.ErrorKind{nem12.KindRecordField},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 1, ErrorCount: 1},
		},
		{
			name:      "footer anywhere satisfies structure",
			input:     lines("100", "900", "200,M1,1", "300,2025-09-12,4"),
			wantReadings: []nem12.MeterReading{
				{NMI: "M1", Timestamp: at("2025-09-12", 0), Consumption: 4},
			},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", RowsEmitted: 1},
		},
		{
			name:      "blank line is an unknown record",
			input:     lines("100", "", "900"),
			wantKinds: []nem12.ErrorKind{nem12.KindUnknownRecord},
			wantAudit: &nem12.AuditRecord{FileID: "test.csv", ErrorCount: 1},
		},
		{
			name:    "missing footer is structural",
			input:   lines("100", "200,M1,1"),
			wantErr: nem12.ErrStructural,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, err := parse(t, tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, c.audits, "no audit on failure")
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantReadings, c.readings)
			if len(tt.wantKinds) == 0 {
				assert.Empty(t, c.events)
			} else {
				assert.Equal(t, tt.wantKinds, c.kinds())
			}

			if tt.wantAudit != nil {
				assert.Equal(t, *tt.wantAudit, rec)
				require.Len(t, c.audits, 1)
				assert.Equal(t, *tt.wantAudit, c.audits[0])
			}
		})
	}
}

func TestParse_AuditSummaryLine(t *testing.T) {
	c, _, err := parse(t, lines("100", "200,M1,2", "300,2025-09-12,1.1,2.2", "900"))
	require.NoError(t, err)
	require.Len(t, c.audits, 1)
	assert.Equal(t, "File: test.csv, Rows inserted: 2, Errors: 0", c.audits[0].String())
}

func TestParse_ExactIntervalCountYieldsAllReadings(t *testing.T) {
	for _, n := range []int{1, 4, 24, 48, 96, 288} {
		vals := make([]string, n)
		for i := range vals {
			vals[i] = "0.5"
		}
		input := lines("100", "200,NMI1,"+itoa(n), "300,2025-01-01,"+strings.Join(vals, ","), "900")

		c, rec, err := parse(t, input)
		require.NoError(t, err)
		assert.Len(t, c.readings, n, "n=%d", n)
		assert.Empty(t, c.events, "n=%d", n)
		assert.Equal(t, n, rec.RowsEmitted)
	}
}

func TestParse_KBadValuesAmongN(t *testing.T) {
	c, rec, err := parse(t, lines("100", "200,M1,6", "300,2025-01-01,1,x,2,y,3,z", "900"))
	require.NoError(t, err)
	assert.Len(t, c.readings, 3)
	assert.Equal(t, []nem12.ErrorKind{nem12.KindValue, nem12.KindValue, nem12.KindValue}, c.kinds())
	assert.Equal(t, 3, rec.ErrorCount, "each bad value counts once")
}

func TestParse_NonDecimalValuesRejected(t *testing.T) {
	c, rec, err := parse(t, lines("100", "200,M1,6", "300,2025-01-01,nan,inf,0x1p2,1_0,-Infinity,2.5e1", "900"))
	require.NoError(t, err)
	require.Len(t, c.readings, 1)
	assert.Equal(t, 25.0, c.readings[0].Consumption)
	assert.Equal(t, at("2025-01-01", 20), c.readings[0].Timestamp)
	assert.Len(t, c.events, 5)
	for _, e := range c.events {
		assert.Equal(t, nem12.KindValue, e.Kind)
	}
	assert.Equal(t, 5, rec.ErrorCount)
}

func TestParse_TrailingDelimiters(t *testing.T) {
	c, rec, err := parse(t, lines("100,NEM12,", "200,M1,2,", "300,2025-09-12,1.1,2.2,", ",,,", "900,"))
	require.NoError(t, err)
	assert.Empty(t, c.events, "trailing delimiters and delimiter-only lines are not errors")
	require.Len(t, c.readings, 2)
	assert.Equal(t, 1.1, c.readings[0].Consumption)
	assert.Equal(t, 2.2, c.readings[1].Consumption)
	assert.Equal(t, 2, rec.RowsEmitted)
}

func TestParse_MismatchIgnoresValueValidity(t *testing.T) {
	c, _, err := parse(t, lines("100", "200,M1,2", "300,2025-01-01,a,b,c", "900"))
	require.NoError(t, err)
	assert.Empty(t, c.readings)
	require.Len(t, c.events, 1)
	assert.Equal(t, nem12.KindSchemaMismatch, c.events[0].Kind)
	assert.Equal(t, "Interval count mismatch: expected 2, got 3", c.events[0].Reason)
}

func TestParse_IgnoredRecordIsSilent(t *testing.T) {
	c, rec, err := parse(t, lines("100", "500", "500,a,b,c", "200,M1,1", "500,zzz", "300,2025-01-01,7", "900"))
	require.NoError(t, err)
	assert.Empty(t, c.events)
	assert.Len(t, c.readings, 1)
	assert.Equal(t, "M1", c.readings[0].NMI, "500 leaves the NMI context alone")
	assert.Equal(t, 1, rec.RowsEmitted)
}

func TestParse_StaleIntervalCountIsKept(t *testing.T) {
	input := lines(
		"100",
		"200,M1,2",
		"200,M2,notanumber",
		"300,2025-01-01,1,2",
		"900",
	)
	c, _, err := parse(t, input)
	require.NoError(t, err)

	require.Len(t, c.events, 1)
	assert.Equal(t, nem12.KindFormat, c.events[0].Kind)
	assert.Equal(t, 3, c.events[0].Line)

	require.Len(t, c.readings, 2)
	assert.Equal(t, "M2", c.readings[0].NMI, "meter id updated despite bad count")
}

func TestParse_ShortNMIRecordKeepsContext(t *testing.T) {
	c, _, err := parse(t, lines("100", "200,M1,1", "200,M2", "300,2025-01-01,5", "900"))
	require.NoError(t, err)
	require.Len(t, c.readings, 1)
	assert.Equal(t, "M1", c.readings[0].NMI)
}

func TestParse_ReadingsInSourceOrder(t *testing.T) {
	input := lines(
		"100",
		"200,A,4",
		"300,2025-01-01,1,2,3,4",
		"300,2025-01-02,5,6,7,8",
		"200,B,2",
		"300,2025-01-01,9,10",
		"900",
	)
	c, _, err := parse(t, input)
	require.NoError(t, err)

	var got []float64
	for _, r := range c.readings {
		got = append(got, r.Consumption)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
	assert.Equal(t, at("2025-01-01", 18), c.readings[3].Timestamp)
	assert.Equal(t, "B", c.readings[9].NMI)
}

func TestParse_HourBucketing(t *testing.T) {
	vals := make([]string, 48)
	for i := range vals {
		vals[i] = itoa(i)
	}
	c, _, err := parse(t, lines("100", "200,M1,48", "300,2025-01-01,"+strings.Join(vals, ","), "900"))
	require.NoError(t, err)
	require.Len(t, c.readings, 48)

	// Two half-hour values land in each hour.
	assert.Equal(t, at("2025-01-01", 0), c.readings[0].Timestamp)
	assert.Equal(t, at("2025-01-01", 0), c.readings[1].Timestamp)
	assert.Equal(t, at("2025-01-01", 1), c.readings[2].Timestamp)
	assert.Equal(t, at("2025-01-01", 23), c.readings[47].Timestamp)
}

func TestParse_TrimsFieldsAndCRLF(t *testing.T) {
	input := "100 ,NEM12\r\n 200 , M1 , 2 \r\n300, 2025-09-12 , 1.5 ,2.5\r\n900\r\n"
	c, _, err := parse(t, input)
	require.NoError(t, err)
	assert.Empty(t, c.events)
	require.Len(t, c.readings, 2)
	assert.Equal(t, "M1", c.readings[0].NMI)
	assert.Equal(t, 2.5, c.readings[1].Consumption)
}

func TestParse_ByteOrderMarkOnFirstLine(t *testing.T) {
	c, _, err := parse(t, "\uFEFF100\n900\n")
	require.NoError(t, err)
	assert.Empty(t, c.events, "BOM must not turn the header into an unknown record")
}

func TestParse_ErrorEventContext(t *testing.T) {
	c, _, err := parse(t, lines("100", "200,M1,1", "300,2025-01-01,oops", "900"))
	require.NoError(t, err)
	require.Len(t, c.events, 1)

	ev := c.events[0]
	assert.Equal(t, "test.csv", ev.FileID)
	assert.Equal(t, 3, ev.Line)
	assert.Equal(t, "300", ev.RecordType)
	assert.Contains(t, ev.Reason, nem12.ReasonNonNumeric)
	assert.Contains(t, ev.Reason, `"oops"`)
}

func TestParse_RepeatedCallsAreNotCumulative(t *testing.T) {
	input := lines("100", "200,M1,2", "300,2025-09-12,1.1,2.2", "900")
	p := nem12.New(nem12.Config{})

	var total int
	acc := nem12.ReadingFunc(func(nem12.MeterReading) { total++ })

	first, err := p.Parse("f", strings.NewReader(input), nem12.Sinks{Readings: acc})
	require.NoError(t, err)
	second, err := p.Parse("f", strings.NewReader(input), nem12.Sinks{Readings: acc})
	require.NoError(t, err)

	assert.Equal(t, 2, first.RowsEmitted)
	assert.Equal(t, 2, second.RowsEmitted)
	assert.Equal(t, 4, total)
}

func TestParse_ErrorSinkFailureDoesNotAbort(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	p := nem12.New(nem12.DefaultConfig(), nem12.WithLogger(logger))

	var readings int
	rec, err := p.Parse("f.csv", strings.NewReader(lines("100", "700", "200,M1,1", "300,2025-01-01,1", "900")), nem12.Sinks{
		Readings: nem12.ReadingFunc(func(nem12.MeterReading) { readings++ }),
		Errors:   nem12.ErrorFunc(func(nem12.ErrorEvent) error { return errors.New("disk full") }),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, readings)
	assert.Equal(t, 1, rec.ErrorCount, "failed deliveries still count")
	assert.Contains(t, logBuf.String(), "disk full")
}

func TestParse_NilSinksDiscard(t *testing.T) {
	p := nem12.New(nem12.DefaultConfig())
	rec, err := p.Parse("f", strings.NewReader(lines("100", "200,M1,1", "300,2025-01-01,1", "700", "900")), nem12.Sinks{})
	require.NoError(t, err)
	assert.Equal(t, nem12.AuditRecord{FileID: "f", RowsEmitted: 1, ErrorCount: 1}, rec)
}

func TestParse_StructuralErrorDetails(t *testing.T) {
	_, _, err := parse(t, lines("200,M1,1"))
	var se *nem12.StructuralError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.MissingHeader)
	assert.True(t, se.MissingFooter)
	assert.Contains(t, se.Error(), "header and footer")
}

func TestParse_LineTooLong(t *testing.T) {
	p := nem12.New(nem12.Config{MaxLineBytes: 16})
	_, err := p.Parse("f", strings.NewReader("100\n300,"+strings.Repeat("1,", 20)+"\n900\n"), nem12.Sinks{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, nem12.ErrStructural)
}

func TestParse_CustomDelimiter(t *testing.T) {
	c := &collector{}
	p := nem12.New(nem12.Config{Delimiter: "|"})
	_, err := p.Parse("pipe", strings.NewReader(lines("100", "200|M1|1", "300|2025-01-01|3.25", "900")), c.sinks())
	require.NoError(t, err)
	require.Len(t, c.readings, 1)
	assert.Equal(t, 3.25, c.readings[0].Consumption)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter.csv")
	require.NoError(t, os.WriteFile(path, []byte(lines("100", "200,M1,1", "300,2025-01-01,1", "900")), 0o600))

	c := &collector{}
	rec, err := nem12.New(nem12.DefaultConfig()).ParseFile(path, c.sinks())
	require.NoError(t, err)
	assert.Equal(t, path, rec.FileID)
	assert.Len(t, c.readings, 1)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := nem12.New(nem12.DefaultConfig()).ParseFile(filepath.Join(t.TempDir(), "nope.csv"), nem12.Sinks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func itoa(n int) string { return strconv.Itoa(n) }

package nem12

// lines.go reads the input one physical line at a time without loading the
// whole file:
//
//   - a UTF-8 byte order mark on the first line is dropped
//   - invalid UTF-8 is replaced with U+FFFD
//   - "\r\n" and "\n" line endings are both accepted

import (
	"bufio"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

type lineReader struct {
	scanner *bufio.Scanner
	number  int
	text    string
}

func newLineReader(r io.Reader, maxLine int) *lineReader {
	sc := bufio.NewScanner(r)
	initial := 64 * 1024
	if maxLine < initial {
		initial = maxLine
	}
	sc.Buffer(make([]byte, 0, initial), maxLine)
	return &lineReader{scanner: sc}
}

// Next advances to the next line. It returns false at end of input or on a
// read error; Err distinguishes the two.
func (l *lineReader) Next() bool {
	if !l.scanner.Scan() {
		return false
	}
	l.number++
	text := l.scanner.Text()
	if l.number == 1 {
		text = strings.TrimPrefix(text, utf8BOM)
	}
	l.text = strings.ToValidUTF8(text, "\uFFFD")
	return true
}

// Number is the 1-based position of the current line.
func (l *lineReader) Number() int { return l.number }

func (l *lineReader) Text() string { return l.text }

func (l *lineReader) Err() error { return l.scanner.Err() }

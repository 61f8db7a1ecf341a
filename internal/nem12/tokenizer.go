package nem12

import "strings"

// Fields is a tokenized record. The first element is the record type code.
type Fields []string

// Code returns the record type code, or "" for an empty sequence.
func (f Fields) Code() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Tokenize splits line on delim and trims surrounding whitespace from every
// field. Trailing empty fields are dropped, so a line made only of
// delimiters yields no fields at all. A blank line yields a single empty
// field.
func Tokenize(line, delim string) Fields {
	if line == "" {
		return Fields{""}
	}
	parts := strings.Split(line, delim)
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	parts = parts[:n]
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return Fields(parts)
}

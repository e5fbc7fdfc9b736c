package rowexport

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// decodeKV reads one record per line of blank separated key=value pairs.
func decodeKV(r io.Reader) (RecordSet, error) {
	var rs RecordSet
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var rec Record
		for _, pair := range splitPairs(text) {
			key, val, err := parsePair(pair)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			rec.Set(key, val)
		}
		rs = append(rs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func parsePair(pair string) (string, Value, error) {
	key, raw, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("malformed pair %q", pair)
	}
	switch {
	case raw == "":
		return key, nil, nil
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			return "", nil, fmt.Errorf("bad quoted value for %q: %w", key, err)
		}
		return key, s, nil
	default:
		return key, inferValue(raw), nil
	}
}

func splitPairs(s string) []string {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Split(scanPairs)
	var res []string
	for sc.Scan() {
		res = append(res, sc.Text())
	}
	return res
}

func scanPairs(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// Skip leading spaces.
	start := 0
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if !isSpace(r) {
			break
		}
	}

	// Scan until a space outside of quotes, marking end of pair. Quotes
	// stay part of the token so the value can be unquoted later.
	inQuote := false
	inEscape := false
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		switch {
		case inEscape:
			inEscape = false
		case inQuote && r == '\\':
			inEscape = true
		case r == '"':
			inQuote = !inQuote
		case !inQuote && isSpace(r):
			return i + width, data[start:i], nil
		}
	}

	// If we're at EOF, we have a final, non-empty, non-terminated pair. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}

	// Request more data.
	return start, nil, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t':
		return true
	default:
		return false
	}
}

// inferValue returns s as an int64 or finite float64 when it parses as
// one, and as the string itself otherwise.
func inferValue(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

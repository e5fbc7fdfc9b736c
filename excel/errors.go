package excel

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	// IOError means the destination could not be written.
	IOError ErrorKind = iota + 1
	// SerializationError means a value or the shape of the record set
	// cannot be represented in a workbook.
	SerializationError
)

func (k ErrorKind) String() string {
	switch k {
	case IOError:
		return "io error"
	case SerializationError:
		return "serialization error"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

var (
	ErrUnsupportedValue = errors.New("unsupported value type")
	ErrNotFinite        = errors.New("number is not finite")
	ErrCellTooLong      = errors.New("text exceeds cell length limit")
	ErrTooManyColumns   = errors.New("too many columns")
	ErrTooManyRows      = errors.New("too many rows")
)

// ExportError is returned by Export and XLSX. Row is the 1-based sheet row
// and Column the header name of the offending cell, when known.
type ExportError struct {
	Kind   ErrorKind
	Path   string
	Row    int
	Column string
	Err    error
}

func (e *ExportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " for %s", e.Path)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

package formats

import (
	"errors"
	"fmt"
	"strings"
)

// MDL codec errors.
var (
	// ErrMalformedBlock marks a structural grammar violation.
	ErrMalformedBlock = errors.New("malformed block")
	// ErrUnresolvedReference marks a node, parent or root name that could not be found.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrUnrecognizedController marks a keyword kept as raw text.
	ErrUnrecognizedController = errors.New("unrecognized controller")
	// ErrIOFailure marks a companion file that could not be read or written.
	ErrIOFailure = errors.New("companion file unavailable")

	ErrNoModel     = errors.New("no newmodel block found")
	ErrNoAnimation = errors.New("no newanim block found")
	ErrNoNode      = errors.New("no node block found")
)

// LineError attaches a source line number to an error.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// lineErrorf builds a LineError wrapping kind.
func lineErrorf(line int, kind error, format string, args ...any) error {
	return &LineError{Line: line, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

// Diagnostics is a list of non-fatal problems found while decoding or
// converting. Each entry wraps one of the package's error kinds.
type Diagnostics []error

// Error formats the list with one entry per line.
func (d Diagnostics) Error() string {
	switch len(d) {
	case 0:
		return "no diagnostics"
	case 1:
		return d[0].Error()
	default:
		var buf strings.Builder
		fmt.Fprintf(&buf, "%d diagnostics:", len(d))
		for _, err := range d {
			buf.WriteString("\n\t")
			buf.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n\t"))
		}
		return buf.String()
	}
}

// Append returns d with each non-nil err appended.
func (d Diagnostics) Append(errs ...error) Diagnostics {
	for _, err := range errs {
		if err != nil {
			d = append(d, err)
		}
	}
	return d
}

// Count returns how many entries match kind.
func (d Diagnostics) Count(kind error) int {
	n := 0
	for _, err := range d {
		if errors.Is(err, kind) {
			n++
		}
	}
	return n
}

// Return returns nil when the list is empty.
func (d Diagnostics) Return() error {
	if len(d) == 0 {
		return nil
	}
	return d
}

package formats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// mdlLexer splits model text into fields. Comments run from '#' to the end
// of the line and never affect row grouping.
var mdlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Space", Pattern: `[ \t\r\f\v]+`},
	{Name: "Field", Pattern: `[^ \t\r\f\v\n#]+`},
})

var (
	tokenEOL   = mdlLexer.Symbols()["EOL"]
	tokenField = mdlLexer.Symbols()["Field"]
)

// Row is one non-blank input line split into whitespace-delimited fields.
type Row struct {
	Fields []string
	Line   int // 1-based source line
}

// Label returns the lower-cased first field.
func (r Row) Label() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return strings.ToLower(r.Fields[0])
}

// Arg returns field i, or "" when the row is shorter.
func (r Row) Arg(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}

// Text returns the fields joined by single spaces.
func (r Row) Text() string {
	return strings.Join(r.Fields, " ")
}

// Tokenize splits text into rows. Blank and comment-only lines produce no row.
func Tokenize(text string) ([]Row, error) {
	lex, err := mdlLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}

	var rows []Row
	var cur Row
	flush := func() {
		if len(cur.Fields) > 0 {
			rows = append(rows, cur)
		}
		cur = Row{}
	}

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("tokenizing: %w", err)
		}
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case tokenEOL:
			flush()
		case tokenField:
			if len(cur.Fields) == 0 {
				cur.Line = tok.Pos.Line
			}
			cur.Fields = append(cur.Fields, tok.Value)
		}
	}
	flush()

	return rows, nil
}

// IsNumeric reports whether field parses as a floating-point literal.
func IsNumeric(field string) bool {
	_, err := strconv.ParseFloat(field, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

// ScanKeyBlock returns how many rows starting at start have a numeric first
// field. The count ends at the first non-numeric row or the end of rows.
func ScanKeyBlock(rows []Row, start int) int {
	if start < 0 {
		return 0
	}
	n := 0
	for i := start; i < len(rows); i++ {
		if len(rows[i].Fields) == 0 || !IsNumeric(rows[i].Fields[0]) {
			break
		}
		n++
	}
	return n
}

// parseFloat parses a numeric field, keeping out-of-range values as ±Inf.
func parseFloat(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return v, nil
}

// parseFloats parses every field in fields.
func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// round7 rounds v to 7 significant digits.
func round7(v float64) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 7, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// formatFloat writes v with 7 significant digits and no exponent. Values
// that round to zero at 7 decimal places are written as 0.
func formatFloat(v float64) string {
	if math.Round(v*1e7) == 0 {
		return "0"
	}
	v = round7(v)
	if v == 0 {
		// Avoid "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundTime rounds a time in seconds to 7 decimal places.
func RoundTime(seconds float64) float64 {
	return math.Round(seconds*1e7) / 1e7
}

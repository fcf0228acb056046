package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowError records one rejected configuration line. Rejected rows are
// skipped; parsing continues with the next line.
type RowError struct {
	Line int
	Text string
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseConfig reads a text configuration and applies it to the radio's
// image. Malformed rows are collected and skipped; a bank capacity
// overflow aborts the parse.
//
// The reader is consumed line by line through a small state machine:
// outside a table, "Name: value" lines are scalar parameters and lines
// matching a known table name start that table; inside a table, a blank
// line leaves it and a new header switches to the next one.
func ParseConfig(r io.Reader, radio Radio) ([]RowError, error) {
	var rejected []RowError

	table := TableNone
	firstRow := false
	lineno := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			table = TableNone
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if t := radio.ParseHeader(line); t != TableNone {
			table = t
			firstRow = true
			continue
		}

		if table == TableNone {
			// Scalar parameter, or noise between tables.
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				rejected = append(rejected, RowError{lineno, line, errors.New("unrecognized line")})
				continue
			}
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			if err := radio.ParseParameter(name, value); err != nil {
				rejected = append(rejected, RowError{lineno, line, err})
			}
			continue
		}

		err := radio.ParseRow(table, firstRow, line)
		if err == nil {
			firstRow = false
			continue
		}
		if errors.Is(err, ErrBankCapacity) {
			return rejected, fmt.Errorf("line %d: %w", lineno, err)
		}
		rejected = append(rejected, RowError{lineno, line, err})
	}
	if err := scanner.Err(); err != nil {
		return rejected, fmt.Errorf("read config: %w", err)
	}
	return rejected, nil
}

// HeaderMatches reports whether a line begins with the given table name,
// ignoring case. Used by the per-model ParseHeader implementations.
func HeaderMatches(line, name string) bool {
	return len(line) >= len(name) && strings.EqualFold(line[:len(name)], name)
}

// Fields splits a data row into whitespace-separated tokens and checks
// the expected count for its table kind.
func Fields(line string, want int) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("wrong number of fields: got %d, want %d", len(fields), want)
	}
	return fields, nil
}

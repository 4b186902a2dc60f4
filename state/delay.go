package state

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingUnit   = errors.New("delay must end in " + DelaySuffix)
	ErrNegativeDelay = errors.New("delay must not be negative")
)

// ParseError reports a link delay that could not be turned into milliseconds.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid delay %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseDelay converts strings like "7ms" or "2.5ms" into a millisecond value.
func ParseDelay(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	num, ok := strings.CutSuffix(trimmed, DelaySuffix)
	if !ok {
		return 0, &ParseError{Input: s, Err: ErrMissingUnit}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, &ParseError{Input: s, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Input: s, Err: fmt.Errorf("delay must be finite")}
	}
	if v < 0 {
		return 0, &ParseError{Input: s, Err: ErrNegativeDelay}
	}
	return v, nil
}

func FormatDelay(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64) + DelaySuffix
}

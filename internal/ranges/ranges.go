// Package ranges parses the index expressions accepted by bulk commands,
// e.g. "3", "2-5", "1,3-5,7".
package ranges

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the input contains no expression at all.
// Callers can report "no input" differently from a malformed expression.
var ErrEmpty = errors.New("empty index expression")

// Parse converts an index expression into a deduplicated, ascending list
// of 1-based indices. A reversed range like "5-2" is accepted and the
// endpoints are swapped. Any malformed term fails the whole parse; no
// partial result is ever returned.
func Parse(input string) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmpty
	}

	seen := make(map[int]bool)
	for _, term := range strings.Split(input, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("empty term in index expression %q", input)
		}

		lo, hi, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			seen[n] = true
		}
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// parseTerm handles a single NUMBER or NUMBER-NUMBER term.
func parseTerm(term string) (int, int, error) {
	if !strings.Contains(term, "-") {
		n, err := parseIndex(term)
		if err != nil {
			return 0, 0, err
		}
		return n, n, nil
	}

	parts := strings.SplitN(term, "-", 2)
	lo, err := parseIndex(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", term, err)
	}
	hi, err := parseIndex(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", term, err)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing message number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid message number %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("message number must be 1 or greater, got %d", n)
	}
	return n, nil
}

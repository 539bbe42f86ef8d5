package pdf

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TokenError describes one rejected part of a page specification
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("invalid page input %q: %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// PageSelection is the result of parsing a page specification.
// Indices are zero-based, unique and ascending.
type PageSelection struct {
	Indices  []int
	Rejected []*TokenError
}

// Empty reports whether nothing was selected
func (s PageSelection) Empty() bool {
	return len(s.Indices) == 0
}

// PageNumbers returns the selection as 1-based page numbers
func (s PageSelection) PageNumbers() []int {
	numbers := make([]int, len(s.Indices))
	for i, idx := range s.Indices {
		numbers[i] = idx + 1
	}
	return numbers
}

// ParsePageSpec parses a page specification such as "1, 3-5,8" against a
// document of totalPages pages.
//
// Parsing is forgiving: a bad token is recorded in Rejected and skipped, the
// remaining tokens are still used. When no token is valid the empty selection
// is returned together with ErrNoValidPages.
func ParsePageSpec(spec string, totalPages int) (PageSelection, error) {
	var sel PageSelection
	pageSet := make(map[int]struct{})

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		start, end, err := parseToken(part, totalPages)
		if err != nil {
			sel.Rejected = append(sel.Rejected, &TokenError{Token: part, Err: err})
			continue
		}

		for page := start; page <= end; page++ {
			pageSet[page-1] = struct{}{}
		}
	}

	sel.Indices = make([]int, 0, len(pageSet))
	for idx := range pageSet {
		sel.Indices = append(sel.Indices, idx)
	}
	sort.Ints(sel.Indices)

	if sel.Empty() {
		return sel, ErrNoValidPages
	}
	return sel, nil
}

// parseToken returns the inclusive 1-based page range a token stands for
func parseToken(token string, totalPages int) (int, int, error) {
	if startStr, endStr, isRange := strings.Cut(token, "-"); isRange {
		start, err := parsePageNumber(startStr)
		if err != nil {
			return 0, 0, err
		}
		end, err := parsePageNumber(endStr)
		if err != nil {
			return 0, 0, err
		}

		if start > end {
			return 0, 0, fmt.Errorf("%w: start > end (%d > %d)", ErrInvalidRange, start, end)
		}
		if start < 1 || end > totalPages {
			return 0, 0, fmt.Errorf("%w: %d-%d (document has %d pages)", ErrPageOutOfBounds, start, end, totalPages)
		}
		return start, end, nil
	}

	page, err := parsePageNumber(token)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 || page > totalPages {
		return 0, 0, fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfBounds, page, totalPages)
	}
	return page, page, nil
}

func parsePageNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		// too large for int, so past the end of any document
		return 0, fmt.Errorf("%w: %s", ErrPageOutOfBounds, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return n, nil
}

// ValidateIndices checks that every zero-based index lies inside a document
// of totalPages pages
func ValidateIndices(indices []int, totalPages int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= totalPages {
			return fmt.Errorf("%w: page %d (document has %d pages)", ErrPageOutOfBounds, idx+1, totalPages)
		}
	}
	return nil
}

// normalizeIndices returns a sorted copy of indices without duplicates
func normalizeIndices(indices []int) []int {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	deduped := sorted[:0]
	for i, idx := range sorted {
		if i == 0 || idx != sorted[i-1] {
			deduped = append(deduped, idx)
		}
	}
	return deduped
}

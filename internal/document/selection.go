package document

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParsePages parses a selection of 1-based pages and ranges, like
// "1-3,5", for a document of count pages. It returns the 0-based pages in
// ascending order, without duplicates.
func ParsePages(s string, count int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSelection)
	}

	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		first, last, err := parsePart(part)
		if err != nil {
			return nil, err
		}
		if first > last {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
		}
		if first < 1 || last > count {
			return nil, fmt.Errorf("%w: %q of %d pages", ErrPageOutOfRange, part, count)
		}
		for p := first; p <= last; p++ {
			pages = append(pages, p-1)
		}
	}
	slices.Sort(pages)
	return slices.Compact(pages), nil
}

func parsePart(part string) (first, last int, err error) {
	lo, hi, isRange := strings.Cut(part, "-")
	if first, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
	}
	if !isRange {
		return first, first, nil
	}
	if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
	}
	return first, last, nil
}

// Package scenes parses user-supplied scene selections into concrete
// scene indices.
package scenes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"storyreel/internal/services"
)

// ParseSelection expands a selection expression into a sorted,
// deduplicated list of 1-based scene indices. Supported forms are a
// single index ("5"), a comma list ("5,9,2"), and an inclusive range
// ("10-12"); forms can be mixed ("3,7-9"). max bounds the valid index
// space; indices outside 1..max are a validation error.
func ParseSelection(expr string, max int) ([]int, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, services.Wrap(services.ErrValidation, "scenes", "selection", "empty scene selection", nil)
	}
	if max < 1 {
		return nil, services.Wrap(services.ErrValidation, "scenes", "selection", "story has no scenes to select from", nil)
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, services.Wrap(services.ErrValidation, "scenes", "selection", fmt.Sprintf("empty segment in selection %q", expr), nil)
		}

		low, high, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		for i := low; i <= high; i++ {
			if i < 1 || i > max {
				return nil, services.Wrap(services.ErrValidation, "scenes", "selection", fmt.Sprintf("scene %d out of range 1..%d", i, max), nil)
			}
			seen[i] = struct{}{}
		}
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

func parseSegment(part string) (int, int, error) {
	if low, high, ok := strings.Cut(part, "-"); ok {
		start, err := parseIndex(low)
		if err != nil {
			return 0, 0, err
		}
		end, err := parseIndex(high)
		if err != nil {
			return 0, 0, err
		}
		if end < start {
			return 0, 0, services.Wrap(services.ErrValidation, "scenes", "selection", fmt.Sprintf("range %q runs backwards", part), nil)
		}
		return start, end, nil
	}
	index, err := parseIndex(part)
	if err != nil {
		return 0, 0, err
	}
	return index, index, nil
}

func parseIndex(value string) (int, error) {
	value = strings.TrimSpace(value)
	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "scenes", "selection", fmt.Sprintf("%q is not a scene index", value), err)
	}
	return index, nil
}

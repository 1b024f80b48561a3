package util

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseList parses a comma separated list of numbers and inclusive ranges,
// for example "1-3,5", into a sorted list without duplicates.
func ParseList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	seen := make(map[int]struct{})
	for _, entry := range strings.Split(s, ",") {
		lo, hi, err := parseRange(entry)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			seen[i] = struct{}{}
		}
	}

	result := make([]int, 0, len(seen))
	for i := range seen {
		result = append(result, i)
	}
	slices.Sort(result)
	return result, nil
}

func parseRange(entry string) (int, int, error) {
	first, last, isRange := strings.Cut(entry, "-")

	lo, err := strconv.Atoi(first)
	if err != nil || lo < 0 {
		return 0, 0, fmt.Errorf("invalid list entry %q", entry)
	}
	if !isRange {
		return lo, lo, nil
	}

	hi, err := strconv.Atoi(last)
	if err != nil || hi < 0 {
		return 0, 0, fmt.Errorf("invalid range end in %q", entry)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("range %q is reversed", entry)
	}
	return lo, hi, nil
}

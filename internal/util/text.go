package util

import (
	"strconv"
	"strings"
	"time"
)

const ellipsisStr = "..."

// Clean trims surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(s)
}

// Shrink cuts s to at most width runes. With ellipsis the cut is marked with
// "..." and a trailing space before the marker becomes a dot.
func Shrink(s string, width int, ellipsis bool) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if !ellipsis {
		return string(runes[:width])
	}
	if width <= len(ellipsisStr) {
		return ""
	}

	head := runes[:width-len(ellipsisStr)]
	if head[len(head)-1] == ' ' {
		head[len(head)-1] = '.'
	}
	return string(head) + ellipsisStr
}

// Age formats the time elapsed since t in the compact form used by the patch
// listing: hours under a day, days under a month, months under two years and
// years after that.
func Age(now, t time.Time) string {
	delta := now.Sub(t)
	if delta < 0 {
		delta = 0
	}

	const day = 24 * time.Hour
	days := int(delta / day)

	switch {
	case days >= 2*365:
		return strconv.Itoa(days/365) + "y"
	case days >= 30:
		return strconv.Itoa(days/30) + "m"
	case days >= 1:
		return strconv.Itoa(days) + "d"
	default:
		return strconv.Itoa(int(delta/time.Hour)) + "h"
	}
}

package patch

import (
	"io"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var (
	leadingGroupRegexp = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*`)
	tagSplitRegexp     = regexp.MustCompile(`[,\s]+`)
	indexRegexp        = regexp.MustCompile(`^(\d+)/(\d+)$`)
)

// CleanSubject strips all leading bracket groups, such as "[PATCH 3/9]" or
// "[RFC]", and the surrounding whitespace. Brackets after the subject text are
// preserved.
func CleanSubject(raw string) string {
	s := raw
	for leadingGroupRegexp.MatchString(s) {
		loc := leadingGroupRegexp.FindStringIndex(s)
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// leadingGroups returns the contents of the leading bracket groups.
func leadingGroups(raw string) []string {
	var groups []string
	s := raw
	for {
		m := leadingGroupRegexp.FindStringSubmatchIndex(s)
		if m == nil {
			return groups
		}
		groups = append(groups, s[m[2]:m[3]])
		s = s[m[1]:]
	}
}

func seriesPosition(raw string) (int, int, bool) {
	for _, group := range leadingGroups(raw) {
		for _, token := range tagSplitRegexp.Split(group, -1) {
			m := indexRegexp.FindStringSubmatch(token)
			if m == nil {
				continue
			}
			index, err1 := strconv.Atoi(m[1])
			count, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			return index, count, true
		}
	}
	return 0, 0, false
}

// Index returns the position of the patch within its series, taken from the
// first "<i>/<n>" token among the leading bracket groups.
func Index(raw string) (int, bool) {
	index, _, ok := seriesPosition(raw)
	return index, ok
}

// Count returns the series length from the same token Index reads.
func Count(raw string) (int, bool) {
	_, count, ok := seriesPosition(raw)
	return count, ok
}

// Tags returns the first leading bracket group exactly as written.
func Tags(raw string) (string, bool) {
	m := leadingGroupRegexp.FindStringSubmatchIndex(raw)
	if m == nil {
		return "", false
	}
	// m[2]-1 and m[3]+1 are the brackets themselves.
	return raw[m[2]-1 : m[3]+1], true
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// DecodeMIMEWords resolves RFC 2047 encoded words. Text that fails to decode
// is returned unchanged.
func DecodeMIMEWords(text string) string {
	if !strings.Contains(text, "=?") {
		return text
	}
	decoded, err := wordDecoder.DecodeHeader(text)
	if err != nil || !utf8.ValidString(decoded) {
		return text
	}
	return decoded
}

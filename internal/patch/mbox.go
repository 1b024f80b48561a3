package patch

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TrackingTrailer is the commit message trailer carrying the tracker id.
	TrackingTrailer = "Patchwork-Id"

	envelopeSender = "From nobody "
	asctimeLayout  = "Mon Jan _2 15:04:05 2006"
	// CensoredDate replaces the envelope date so rendered output is stable.
	CensoredDate = "Thu Jan  1 00:00:00 1970"
)

var (
	trackingRegexp = regexp.MustCompile(`(?m)^` + TrackingTrailer + `:\s*(\d+)\s*$`)
	trailerRegexp  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*: `)
)

// Message is a parsed mbox with its header block kept verbatim.
type Message struct {
	headerLines []string
	Header      mail.Header
	Body        string
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// ParseMbox parses a single message, with or without a leading "From "
// envelope line.
func ParseMbox(text string) (*Message, error) {
	text = normalizeNewlines(text)
	if strings.HasPrefix(text, "From ") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}

	head, body, found := strings.Cut(text, "\n\n")
	if !found {
		head, body = strings.TrimSuffix(text, "\n"), ""
	}

	msg, err := mail.ReadMessage(strings.NewReader(head + "\n\n"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mbox headers: %w", err)
	}

	return &Message{
		headerLines: strings.Split(head, "\n"),
		Header:      msg.Header,
		Body:        body,
	}, nil
}

// Subject returns the decoded Subject header.
func (m *Message) Subject() string {
	return DecodeMIMEWords(unfold(m.Header.Get("Subject")))
}

// Log returns the commit message part of the body, up to the "---" separator.
func (m *Message) Log() string {
	var lines []string
	for _, line := range strings.Split(m.Body, "\n") {
		if line == "---" {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func unfold(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MboxOptions control how a patch is rendered for local apply.
type MboxOptions struct {
	// Censor replaces the envelope date with CensoredDate.
	Censor bool
}

// MboxForApply renders the fetched message as a unix mbox whose commit
// message carries the tracking trailer.
func (p *Patch) MboxForApply(opts MboxOptions) (string, error) {
	raw, ok := p.Mbox()
	if !ok {
		return "", fmt.Errorf("mbox for patch %d has not been fetched", p.ID)
	}
	msg, err := ParseMbox(raw)
	if err != nil {
		return "", fmt.Errorf("patch %d: %w", p.ID, err)
	}

	date := CensoredDate
	if !opts.Censor {
		t := p.Date
		if t.IsZero() {
			if hdr, err := msg.Header.Date(); err == nil {
				t = hdr
			}
		}
		if t.IsZero() {
			t = time.Unix(0, 0)
		}
		date = t.UTC().Format(asctimeLayout)
	}

	var b strings.Builder
	b.WriteString(envelopeSender + date + "\n")
	for _, line := range msg.headerLines {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(InjectTrackingID(msg.Body, p.ID))
	return b.String(), nil
}

// InjectTrackingID adds the tracking trailer to the trailer block of a
// commit message body. A body that already carries it is returned as is.
func InjectTrackingID(body string, id int) string {
	if _, ok := ParseTrackingID(body); ok {
		return body
	}
	trailer := fmt.Sprintf("%s: %d", TrackingTrailer, id)

	lines := strings.Split(body, "\n")
	sep := len(lines)
	for i, line := range lines {
		if line == "---" {
			sep = i
			break
		}
	}

	// Walk back over blank lines and the trailer paragraph preceding the
	// separator.
	end := sep
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && trailerRegexp.MatchString(lines[start-1]) {
		start--
	}

	var out []string
	switch {
	case start < end && (start == 0 || strings.TrimSpace(lines[start-1]) == ""):
		out = append(out, lines[:start]...)
		out = append(out, trailer)
		out = append(out, lines[start:]...)
	default:
		out = append(out, lines[:end]...)
		out = append(out, "", trailer)
		out = append(out, lines[end:]...)
	}
	if sep == len(lines) && !strings.HasSuffix(body, "\n") {
		return strings.Join(out, "\n") + "\n"
	}
	return strings.Join(out, "\n")
}

// ParseTrackingID returns the tracker id carried by a commit message.
func ParseTrackingID(text string) (int, bool) {
	m := trackingRegexp.FindStringSubmatch(normalizeNewlines(text))
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// ContentID hashes an mbox after dropping the envelope line and the Date
// header, so re-rendering the same patch yields the same id.
func ContentID(mbox string) string {
	text := normalizeNewlines(mbox)
	if strings.HasPrefix(text, "From ") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
	}

	head, body, _ := strings.Cut(text, "\n\n")
	var kept []string
	skipping := false
	for _, line := range strings.Split(head, "\n") {
		if skipping && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			continue
		}
		skipping = strings.HasPrefix(strings.ToLower(line), "date:")
		if !skipping {
			kept = append(kept, line)
		}
	}

	normalized := strings.Join(kept, "\n") + "\n\n" + strings.TrimRight(body, "\n") + "\n"
	sum := sha1.Sum([]byte(normalized)) //nolint:gosec // content addressing
	return hex.EncodeToString(sum[:])
}

// Package email holds the outgoing mail message used for review replies.
package email

import (
	"bytes"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type field struct {
	key   string
	value string
}

// Message is a plain text mail with headers kept in insertion order, so the
// rendered reply is stable and reads naturally.
type Message struct {
	header []field
	Body   string
}

// NewMessage returns an empty message.
func NewMessage() *Message {
	return &Message{}
}

// Set replaces the header key, or appends it when missing. An empty value
// still creates the header.
func (m *Message) Set(key, value string) {
	for i := range m.header {
		if strings.EqualFold(m.header[i].key, key) {
			m.header[i].value = value
			return
		}
	}
	m.header = append(m.header, field{key: key, value: value})
}

// Get returns the header value, or "" when missing.
func (m *Message) Get(key string) string {
	v, _ := m.Lookup(key)
	return v
}

// Lookup returns the header value and whether the header exists.
func (m *Message) Lookup(key string) (string, bool) {
	for _, f := range m.header {
		if strings.EqualFold(f.key, key) {
			return f.value, true
		}
	}
	return "", false
}

// Keys returns the header names in order.
func (m *Message) Keys() []string {
	keys := make([]string, 0, len(m.header))
	for _, f := range m.header {
		keys = append(keys, f.key)
	}
	return keys
}

// Clone returns a deep copy.
func (m *Message) Clone() *Message {
	c := &Message{Body: m.Body}
	c.header = append(c.header, m.header...)
	return c
}

// Recipients returns the bare addresses of the To and Cc headers.
func (m *Message) Recipients() ([]string, error) {
	var rcpts []string
	for _, key := range []string{"To", "Cc"} {
		v := strings.TrimSpace(m.Get(key))
		if v == "" {
			continue
		}
		list, err := mail.ParseAddressList(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header: %w", key, err)
		}
		for _, a := range list {
			rcpts = append(rcpts, a.Address)
		}
	}
	return rcpts, nil
}

// Sender returns the bare address of the From header.
func (m *Message) Sender() (string, error) {
	a, err := mail.ParseAddress(m.Get("From"))
	if err != nil {
		return "", fmt.Errorf("invalid From header: %w", err)
	}
	return a.Address, nil
}

// Bytes renders the message for delivery. Non-ascii header values are
// encoded as RFC 2047 words and the body is sent as utf-8 text.
func (m *Message) Bytes() []byte {
	var buf bytes.Buffer
	for _, f := range m.header {
		fmt.Fprintf(&buf, "%s: %s\r\n", f.key, encodeHeader(f.key, f.value))
	}
	if _, ok := m.Lookup("MIME-Version"); !ok {
		buf.WriteString("MIME-Version: 1.0\r\n")
	}
	if _, ok := m.Lookup("Content-Type"); !ok {
		buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	}
	buf.WriteString("\r\n")
	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

// String renders the message with unix line endings for display and editing.
func (m *Message) String() string {
	var b strings.Builder
	for _, f := range m.header {
		fmt.Fprintf(&b, "%s: %s\n", f.key, f.value)
	}
	b.WriteString("\n")
	b.WriteString(m.Body)
	return b.String()
}

func encodeHeader(key, value string) string {
	if isASCII(value) {
		return value
	}
	switch strings.ToLower(key) {
	case "from", "to", "cc", "reply-to":
		list, err := mail.ParseAddressList(value)
		if err != nil {
			return mime.QEncoding.Encode("utf-8", value)
		}
		parts := make([]string, 0, len(list))
		for _, a := range list {
			parts = append(parts, a.String())
		}
		return strings.Join(parts, ", ")
	default:
		return mime.QEncoding.Encode("utf-8", value)
	}
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// FormatAddress renders "Name <addr>". Names that need quoting or encoding
// go through net/mail.
func FormatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	if isASCII(name) && !strings.ContainsAny(name, `"(),:;<>@[\]`) {
		return fmt.Sprintf("%s <%s>", name, addr)
	}
	if isASCII(name) {
		return (&mail.Address{Name: name, Address: addr}).String()
	}
	// Keep non-ascii names readable; Bytes encodes them on the wire.
	return fmt.Sprintf("%s <%s>", name, addr)
}

// NewMessageID returns a unique Message-Id for the given domain.
func NewMessageID(domain string) string {
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// DomainOf returns the domain part of an address.
func DomainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return ""
}

// FormatDate renders t as an RFC 5322 date.
func FormatDate(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

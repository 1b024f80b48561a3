package patch

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/sevigo/patch-warden/internal/email"
)

// ReplyMessage builds the reply to a patch sent from the operator's
// identity. The Cc header is always present and never lists the operator.
func (p *Patch) ReplyMessage(fromName, fromEmail string) (*email.Message, error) {
	raw, ok := p.Mbox()
	if !ok {
		return nil, fmt.Errorf("mbox for patch %d has not been fetched", p.ID)
	}
	orig, err := ParseMbox(raw)
	if err != nil {
		return nil, fmt.Errorf("patch %d: %w", p.ID, err)
	}

	self := strings.ToLower(fromEmail)
	to := unfold(orig.Header.Get("From"))
	if to == "" {
		to = email.FormatAddress(p.Submitter.Name, p.Submitter.Email)
	}
	toAddr := ""
	if a, err := mail.ParseAddress(to); err == nil {
		toAddr = strings.ToLower(a.Address)
		to = email.FormatAddress(a.Name, a.Address)
	}

	subject := orig.Subject()
	if subject == "" {
		subject = p.Title
	}

	reply := email.NewMessage()
	reply.Set("From", email.FormatAddress(fromName, fromEmail))
	reply.Set("To", to)
	reply.Set("Cc", strings.Join(ccList(orig.Header, self, toAddr), ", "))
	reply.Set("Subject", "Re: "+subject)
	if id := strings.TrimSpace(orig.Header.Get("Message-Id")); id != "" {
		reply.Set("In-Reply-To", id)
		reply.Set("References", id)
	} else if p.MessageID != "" {
		reply.Set("In-Reply-To", p.MessageID)
		reply.Set("References", p.MessageID)
	}
	reply.Body = quote(p.Submitter.Name, orig.Log())
	return reply, nil
}

// ccList collects the original To and Cc recipients, dropping the operator,
// the new To address and duplicates.
func ccList(h mail.Header, self, toAddr string) []string {
	seen := map[string]bool{self: true}
	if toAddr != "" {
		seen[toAddr] = true
	}

	var cc []string
	for _, key := range []string{"To", "Cc"} {
		v := unfold(h.Get(key))
		if v == "" {
			continue
		}
		list, err := mail.ParseAddressList(v)
		if err != nil {
			continue
		}
		for _, a := range list {
			addr := strings.ToLower(a.Address)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			cc = append(cc, email.FormatAddress(a.Name, a.Address))
		}
	}
	return cc
}

func quote(author, log string) string {
	var b strings.Builder
	if author != "" {
		fmt.Fprintf(&b, "%s wrote:\n\n", author)
	}
	for _, line := range strings.Split(log, "\n") {
		if line == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> " + line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}
